package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"laundrybot/internal/laundry"
	"laundrybot/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func testBuilding() laundry.Building {
	return laundry.NewBuilding(
		[]int{5, 8, 11, 14, 17},
		[]laundry.Machine{
			{ID: "washer1", Name: "Washer 1"},
			{ID: "washer2", Name: "Washer 2"},
			{ID: "dryer1", Name: "Dryer 1"},
			{ID: "dryer2", Name: "Dryer 2"},
		},
	)
}

type stubFetcher struct {
	fn    func(ctx context.Context, level laundry.Level) (*laundry.LevelStatus, error)
	calls int
}

func (s *stubFetcher) FetchLevelStatus(ctx context.Context, level laundry.Level) (*laundry.LevelStatus, error) {
	s.calls++
	return s.fn(ctx, level)
}

func statusFor(b laundry.Building, level laundry.Level, codes []int, at time.Time) *laundry.LevelStatus {
	machines := b.Machines()
	out := &laundry.LevelStatus{Level: level, ObservedAt: at}
	for i, m := range machines {
		out.Machines = append(out.Machines, laundry.MachineStatus{
			Machine: m,
			State:   laundry.StateFromCode(codes[i]),
		})
	}
	return out
}

func newTestController(fetch *stubFetcher) (*Controller, session.Store) {
	store := session.NewMemoryStore()
	ctl := NewController(ControllerOptions{
		Building: testBuilding(),
		Fetcher:  fetch,
		Sessions: store,
	})
	return ctl, store
}

// uniques flattens the callback tokens of every control in the markup.
func uniques(m *tele.ReplyMarkup) []string {
	var out []string
	for _, row := range m.InlineKeyboard {
		for _, btn := range row {
			out = append(out, btn.Unique)
		}
	}
	return out
}

func labelFor(t *testing.T, m *tele.ReplyMarkup, unique string) string {
	t.Helper()
	for _, row := range m.InlineKeyboard {
		for _, btn := range row {
			if btn.Unique == unique {
				return btn.Text
			}
		}
	}
	t.Fatalf("no control with token %q", unique)
	return ""
}

func TestStartWithoutSessionShowsPicker(t *testing.T) {
	fetch := &stubFetcher{fn: func(context.Context, laundry.Level) (*laundry.LevelStatus, error) {
		t.Fatal("picker must not hit the backend")
		return nil, nil
	}}
	ctl, store := newTestController(fetch)

	view := ctl.Dispatch(context.Background(), 42, Action{Kind: ActionStart})

	require.NotNil(t, view.Markup)
	require.Len(t, view.Markup.InlineKeyboard, 5, "one row per level")
	assert.Equal(t,
		[]string{"set_L05", "set_L08", "set_L11", "set_L14", "set_L17"},
		uniques(view.Markup),
	)
	_, pinned := store.PinnedLevel(42)
	assert.False(t, pinned)
}

func TestSelectLevelPinsAndRendersStatus(t *testing.T) {
	b := testBuilding()
	fetch := &stubFetcher{fn: func(_ context.Context, level laundry.Level) (*laundry.LevelStatus, error) {
		return statusFor(b, level, []int{0, 1, 2, 0}, time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC)), nil
	}}
	ctl, store := newTestController(fetch)

	view := ctl.Dispatch(context.Background(), 7, Action{Kind: ActionSelectLevel, Level: 8})

	pinned, ok := store.PinnedLevel(7)
	require.True(t, ok)
	assert.Equal(t, laundry.Level(8), pinned)
	last, ok := store.LastViewedLevel(7)
	require.True(t, ok)
	assert.Equal(t, laundry.Level(8), last)

	for _, want := range []string{"✅ Washer 1", "❌ Washer 2", "⏳ Dryer 1", "✅ Dryer 2"} {
		assert.Contains(t, view.Text, want)
	}
	// Fixed display order.
	prev := -1
	for _, name := range []string{"Washer 1", "Washer 2", "Dryer 1", "Dryer 2"} {
		idx := strings.Index(view.Text, name)
		require.Greater(t, idx, prev, "%s out of order", name)
		prev = idx
	}
	assert.Contains(t, view.Text, "12:30:00")
}

func TestStatusViewNavigationControls(t *testing.T) {
	b := testBuilding()
	fetch := &stubFetcher{fn: func(_ context.Context, level laundry.Level) (*laundry.LevelStatus, error) {
		return statusFor(b, level, []int{0, 0, 0, 0}, time.Now()), nil
	}}
	ctl, _ := newTestController(fetch)

	view := ctl.Dispatch(context.Background(), 1, Action{Kind: ActionViewLevel, Level: 11})

	require.NotNil(t, view.Markup)
	assert.Equal(t,
		[]string{"help", "check_L05", "check_L08", "check_L11", "check_L14", "check_L17", "check_L11"},
		uniques(view.Markup),
		"help header, level grid, refresh footer",
	)
	// Header, grid, footer as separate rows with a 5-wide grid.
	require.Len(t, view.Markup.InlineKeyboard, 3)
	assert.Len(t, view.Markup.InlineKeyboard[1], 5)

	highlighted := labelFor(t, view.Markup, "check_L11")
	other := labelFor(t, view.Markup, "check_L05")
	assert.NotEqual(t, highlighted, other)
	assert.Contains(t, highlighted, "L11")
}

func TestBackendFailureYieldsDegradedView(t *testing.T) {
	fetch := &stubFetcher{fn: func(context.Context, laundry.Level) (*laundry.LevelStatus, error) {
		return nil, fmt.Errorf("get level: %w", laundry.ErrBackendUnavailable)
	}}
	ctl, store := newTestController(fetch)

	view := ctl.Dispatch(context.Background(), 3, Action{Kind: ActionViewLevel, Level: 11})

	assert.Contains(t, view.Text, "could not reach")
	require.NotNil(t, view.Markup)
	assert.Equal(t,
		[]string{"help", "check_L05", "check_L08", "check_L11", "check_L14", "check_L17", "check_L11"},
		uniques(view.Markup),
		"degraded view keeps full navigation",
	)

	// The level still counts as viewed so help returns to it.
	last, ok := store.LastViewedLevel(3)
	require.True(t, ok)
	assert.Equal(t, laundry.Level(11), last)
}

func TestStartWithPinnedLevelSkipsPicker(t *testing.T) {
	b := testBuilding()
	fetch := &stubFetcher{fn: func(_ context.Context, level laundry.Level) (*laundry.LevelStatus, error) {
		return statusFor(b, level, []int{1, 1, 1, 1}, time.Now()), nil
	}}
	ctl, store := newTestController(fetch)
	store.SetPinnedLevel(9, 14)

	view := ctl.Dispatch(context.Background(), 9, Action{Kind: ActionStart})
	assert.Equal(t, 1, fetch.calls, "status fetched fresh")
	assert.Contains(t, view.Text, "Level 14")

	// A second start fetches again rather than reusing the snapshot.
	ctl.Dispatch(context.Background(), 9, Action{Kind: ActionStart})
	assert.Equal(t, 2, fetch.calls)
}

func TestHelpReturnsToLastViewedLevel(t *testing.T) {
	b := testBuilding()
	fetch := &stubFetcher{fn: func(_ context.Context, level laundry.Level) (*laundry.LevelStatus, error) {
		return statusFor(b, level, []int{0, 1, 0, 1}, time.Now()), nil
	}}
	ctl, _ := newTestController(fetch)

	ctl.Dispatch(context.Background(), 5, Action{Kind: ActionViewLevel, Level: 5})
	help := ctl.Dispatch(context.Background(), 5, Action{Kind: ActionShowHelp})

	require.NotNil(t, help.Markup)
	assert.Equal(t, []string{"check_L05"}, uniques(help.Markup))

	back, ok := ParseToken("check_L05")
	require.True(t, ok)
	again := ctl.Dispatch(context.Background(), 5, back)
	assert.Contains(t, again.Text, "Level 5")
	assert.Contains(t, again.Text, "Washer 1")
}

func TestHelpWithoutContextFallsBackToPicker(t *testing.T) {
	fetch := &stubFetcher{fn: func(context.Context, laundry.Level) (*laundry.LevelStatus, error) {
		t.Fatal("help fallback must not hit the backend")
		return nil, nil
	}}
	ctl, _ := newTestController(fetch)

	view := ctl.Dispatch(context.Background(), 99, Action{Kind: ActionShowHelp})
	assert.Equal(t,
		[]string{"set_L05", "set_L08", "set_L11", "set_L14", "set_L17"},
		uniques(view.Markup),
	)
}

func TestInvalidLevelFallsBackToPicker(t *testing.T) {
	fetch := &stubFetcher{fn: func(context.Context, laundry.Level) (*laundry.LevelStatus, error) {
		t.Fatal("invalid level must not hit the backend")
		return nil, nil
	}}
	ctl, store := newTestController(fetch)

	view := ctl.Dispatch(context.Background(), 11, Action{Kind: ActionSelectLevel, Level: 7})

	assert.Equal(t,
		[]string{"set_L05", "set_L08", "set_L11", "set_L14", "set_L17"},
		uniques(view.Markup),
	)
	_, pinned := store.PinnedLevel(11)
	assert.False(t, pinned, "stale token must not mutate the session")
	_, viewed := store.LastViewedLevel(11)
	assert.False(t, viewed)
}

func TestRepeatedViewIdempotentExceptTimestamp(t *testing.T) {
	b := testBuilding()
	times := []time.Time{
		time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 29, 9, 5, 0, 0, time.UTC),
	}
	call := 0
	fetch := &stubFetcher{fn: func(_ context.Context, level laundry.Level) (*laundry.LevelStatus, error) {
		at := times[call]
		call++
		return statusFor(b, level, []int{0, 1, 2, 0}, at), nil
	}}
	ctl, _ := newTestController(fetch)

	first := ctl.Dispatch(context.Background(), 2, Action{Kind: ActionViewLevel, Level: 8})
	second := ctl.Dispatch(context.Background(), 2, Action{Kind: ActionViewLevel, Level: 8})

	assert.Equal(t, first.Markup, second.Markup)
	assert.Equal(t, stripTimestamp(first.Text), stripTimestamp(second.Text))
	assert.NotEqual(t, first.Text, second.Text)
}

func stripTimestamp(text string) string {
	idx := strings.LastIndex(text, "Checked at")
	if idx < 0 {
		return text
	}
	return text[:idx]
}

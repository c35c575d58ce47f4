package laundry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilding() Building {
	return NewBuilding([]int{5, 8, 11, 14, 17}, []Machine{
		{ID: "washer1", Name: "Washer 1"},
		{ID: "washer2", Name: "Washer 2"},
		{ID: "dryer1", Name: "Dryer 1"},
		{ID: "dryer2", Name: "Dryer 2"},
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientOptions{
		BaseURL:               server.URL,
		Timeout:               2 * time.Second,
		Building:              testBuilding(),
		DisplayUTCOffsetHours: 8,
		Now: func() time.Time {
			return time.Date(2026, 8, 29, 4, 0, 0, 0, time.UTC)
		},
	})
	return client, server
}

func TestFetchLevelStatusMapping(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"washer1":0,"washer2":1,"dryer1":2,"dryer2":0}`))
	})

	st, err := client.FetchLevelStatus(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, "/8", gotPath)
	assert.Equal(t, Level(8), st.Level)

	require.Len(t, st.Machines, 4)
	assert.Equal(t, "Washer 1", st.Machines[0].Machine.Name)
	assert.Equal(t, StateAvailable, st.Machines[0].State)
	assert.Equal(t, StateInUse, st.Machines[1].State)
	assert.Equal(t, StateFinishingSoon, st.Machines[2].State, "unrecognized code falls into the finishing-soon bucket")
	assert.Equal(t, StateAvailable, st.Machines[3].State)
}

func TestFetchLevelStatusObservedAtDisplayZone(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"washer1":0,"washer2":0,"dryer1":0,"dryer2":0}`))
	})

	st, err := client.FetchLevelStatus(context.Background(), 5)
	require.NoError(t, err)

	_, offset := st.ObservedAt.Zone()
	assert.Equal(t, 8*3600, offset)
	assert.Equal(t, 12, st.ObservedAt.Hour(), "04:00 UTC reads as 12:00 at UTC+8")
}

func TestFetchLevelStatusMissingMachine(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"washer1":0,"washer2":1,"dryer1":0}`))
	})

	_, err := client.FetchLevelStatus(context.Background(), 11)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "dryer2")
}

func TestFetchLevelStatusBadJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.FetchLevelStatus(context.Background(), 11)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchLevelStatusHTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchLevelStatus(context.Background(), 14)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchLevelStatusBackendDown(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.FetchLevelStatus(context.Background(), 17)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestFetchLevelStatusTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientOptions{
		BaseURL:  server.URL,
		Timeout:  50 * time.Millisecond,
		Building: testBuilding(),
	})

	start := time.Now()
	_, err := client.FetchLevelStatus(context.Background(), 5)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Less(t, time.Since(start), time.Second, "timeout must be finite")
}

func TestStateFromCode(t *testing.T) {
	cases := []struct {
		code int
		want MachineState
	}{
		{0, StateAvailable},
		{1, StateInUse},
		{2, StateFinishingSoon},
		{-1, StateFinishingSoon},
		{99, StateFinishingSoon},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StateFromCode(tc.code), "code %d", tc.code)
	}
}

func TestBuildingHasLevel(t *testing.T) {
	b := testBuilding()
	for _, lvl := range []Level{5, 8, 11, 14, 17} {
		assert.True(t, b.HasLevel(lvl))
	}
	for _, lvl := range []Level{0, 1, 6, 18} {
		assert.False(t, b.HasLevel(lvl))
	}
}

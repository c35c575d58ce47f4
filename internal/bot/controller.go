package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"laundrybot/internal/laundry"
	"laundrybot/internal/logger"
	"laundrybot/internal/session"
	"laundrybot/internal/telegram"
)

var (
	// ErrInvalidLevel marks an action that referenced a level outside the
	// configured set, which means a stale or tampered control token.
	ErrInvalidLevel = errors.New("level not configured")
	// ErrNoActiveLevel marks a help request with no prior level context.
	// The menu graph should make this unreachable.
	ErrNoActiveLevel = errors.New("no active level in session")
)

// StatusFetcher is the controller's view of the status backend.
type StatusFetcher interface {
	FetchLevelStatus(ctx context.Context, level laundry.Level) (*laundry.LevelStatus, error)
}

// ControllerOptions wires the controller's collaborators.
type ControllerOptions struct {
	Building laundry.Building
	Fetcher  StatusFetcher
	Sessions session.Store

	// FetchTimeout bounds one backend status query. Zero means 10s.
	FetchTimeout time.Duration
}

// Controller drives the conversation state machine. It is stateless
// across calls; everything persistent lives in the session store.
type Controller struct {
	building laundry.Building
	fetcher  StatusFetcher
	sessions session.Store
	views    *viewBuilder
	timeout  time.Duration

	// registry supplies the unknown-callback fallback; set by
	// RegisterCommands.
	registry *telegram.Registry
}

// NewController builds a Controller from its collaborators.
func NewController(opts ControllerOptions) *Controller {
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{
		building: opts.Building,
		fetcher:  opts.Fetcher,
		sessions: opts.Sessions,
		views:    newViewBuilder(opts.Building),
		timeout:  timeout,
	}
}

// Dispatch runs one inbound action through the transition table and
// returns the view to emit. Every failure is recovered into a view the
// user can navigate out of: backend failures become the degraded view,
// invalid or out-of-context actions fall back to the level picker.
func (ctl *Controller) Dispatch(ctx context.Context, userID int64, a Action) View {
	view, err := ctl.transition(ctx, userID, a)
	if err == nil {
		return view
	}

	switch {
	case errors.Is(err, ErrInvalidLevel):
		logger.Warn(ctx, "bot", "action.invalid_level",
			slog.String("floor", a.Level.String()),
		)
	case errors.Is(err, ErrNoActiveLevel):
		logger.Warn(ctx, "bot", "action.no_active_level")
	default:
		logger.Error(ctx, "bot", "action.fail",
			slog.String("err", err.Error()),
		)
	}
	return ctl.views.LevelPicker()
}

func (ctl *Controller) transition(ctx context.Context, userID int64, a Action) (View, error) {
	switch a.Kind {
	case ActionStart:
		pinned, ok := ctl.sessions.PinnedLevel(userID)
		if !ok {
			return ctl.views.LevelPicker(), nil
		}
		return ctl.showLevel(ctx, userID, pinned), nil

	case ActionSelectLevel:
		if !ctl.building.HasLevel(a.Level) {
			return View{}, fmt.Errorf("select level %s: %w", a.Level, ErrInvalidLevel)
		}
		ctl.sessions.SetPinnedLevel(userID, a.Level)
		return ctl.showLevel(ctx, userID, a.Level), nil

	case ActionViewLevel:
		if !ctl.building.HasLevel(a.Level) {
			return View{}, fmt.Errorf("view level %s: %w", a.Level, ErrInvalidLevel)
		}
		return ctl.showLevel(ctx, userID, a.Level), nil

	case ActionShowHelp:
		last, ok := ctl.sessions.LastViewedLevel(userID)
		if !ok {
			return View{}, ErrNoActiveLevel
		}
		return ctl.views.Help(last), nil

	default:
		return View{}, fmt.Errorf("unhandled action kind %d", a.Kind)
	}
}

// showLevel records the level as viewed and fetches its status. A failed
// fetch yields the degraded view with navigation intact so a transient
// backend outage never dead-ends the conversation.
func (ctl *Controller) showLevel(ctx context.Context, userID int64, level laundry.Level) View {
	ctl.sessions.SetLastViewedLevel(userID, level)

	fetchCtx, cancel := context.WithTimeout(ctx, ctl.timeout)
	defer cancel()

	start := time.Now()
	status, err := ctl.fetcher.FetchLevelStatus(fetchCtx, level)
	if err != nil {
		logger.Warn(ctx, "bot", "status.fetch.fail",
			slog.String("floor", level.String()),
			slog.String("err", err.Error()),
			slog.String("err_code", classifyFetchError(err)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return ctl.views.Degraded(level)
	}

	logger.Debug(ctx, "bot", "status.fetch",
		slog.String("floor", level.String()),
		slog.Int("machines", len(status.Machines)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return ctl.views.LevelStatus(status)
}

func classifyFetchError(err error) string {
	switch {
	case errors.Is(err, laundry.ErrBackendUnavailable):
		return "backend_unavailable"
	case errors.Is(err, laundry.ErrMalformedResponse):
		return "malformed_response"
	default:
		return "unknown"
	}
}

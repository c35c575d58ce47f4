package laundry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrBackendUnavailable marks network failures and timeouts while
	// contacting the status backend.
	ErrBackendUnavailable = errors.New("status backend unavailable")
	// ErrMalformedResponse marks responses that cannot be parsed into the
	// expected per-machine mapping or omit a configured machine.
	ErrMalformedResponse = errors.New("malformed status response")
)

// ClientOptions configures the status backend client.
type ClientOptions struct {
	BaseURL  string
	Timeout  time.Duration
	Building Building
	// DisplayUTCOffsetHours fixes the zone of observation timestamps.
	DisplayUTCOffsetHours int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Client queries the machine-status backend for one level at a time.
// It performs no retries and no caching; recovery policy belongs to the
// caller.
type Client struct {
	baseURL  string
	building Building
	httpc    *http.Client
	zone     *time.Location
	now      func() time.Time
}

// NewClient builds a Client with a finite request timeout.
func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	name := fmt.Sprintf("UTC%+d", opts.DisplayUTCOffsetHours)
	return &Client{
		baseURL:  opts.BaseURL,
		building: opts.Building,
		httpc:    &http.Client{Timeout: timeout},
		zone:     time.FixedZone(name, opts.DisplayUTCOffsetHours*3600),
		now:      now,
	}
}

// FetchLevelStatus issues GET <base-url>/<level> and normalizes the raw
// per-machine codes into a LevelStatus snapshot. The observation timestamp
// is this client's clock at response time, in the fixed display zone; it
// says when the bot last asked, not what the backend's clock reads.
func (c *Client) FetchLevelStatus(ctx context.Context, level Level) (*LevelStatus, error) {
	url := fmt.Sprintf("%s/%d", c.baseURL, int(level))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for level %d: %w", int(level), err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w: %v", int(level), ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("level %d: %w: unexpected status %s", int(level), ErrMalformedResponse, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("level %d: %w: %v", int(level), ErrBackendUnavailable, err)
	}

	var codes map[string]int
	if err := json.Unmarshal(body, &codes); err != nil {
		return nil, fmt.Errorf("level %d: %w: %v", int(level), ErrMalformedResponse, err)
	}

	machines := c.building.Machines()
	statuses := make([]MachineStatus, 0, len(machines))
	for _, m := range machines {
		code, ok := codes[m.ID]
		if !ok {
			return nil, fmt.Errorf("level %d: %w: missing machine %q", int(level), ErrMalformedResponse, m.ID)
		}
		statuses = append(statuses, MachineStatus{Machine: m, State: StateFromCode(code)})
	}

	return &LevelStatus{
		Level:      level,
		Machines:   statuses,
		ObservedAt: c.now().In(c.zone),
	}, nil
}

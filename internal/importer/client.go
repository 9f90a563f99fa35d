package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/gymlog/internal/models"
	"golang.org/x/time/rate"
)

const sendAttempts = 3

// errPermanent marks a response that will not change on retry.
var errPermanent = errors.New("rejected by server")

// Client sends workout logs to a gymlog server over HTTP.
type Client struct {
	serverURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryWait  time.Duration
}

// NewClient creates a client that sends at most perSecond logs per second.
// A non-positive rate disables pacing.
func NewClient(serverURL string, perSecond float64) *Client {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Client{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
		retryWait:  time.Second,
	}
}

type sendResponse struct {
	ID       string `json:"id"`
	Inserted bool   `json:"inserted"`
}

// SendLog POSTs a log to the server. It reports whether the server stored a new
// row; false means the log was already present. Transport errors, 429 and 5xx
// responses are retried with exponential backoff.
func (c *Client) SendLog(ctx context.Context, log *models.WorkoutLog) (bool, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return false, fmt.Errorf("marshaling log: %w", err)
	}

	var lastErr error
	for attempt := range sendAttempts {
		if attempt > 0 {
			wait := c.retryWait << uint(attempt-1)
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return false, fmt.Errorf("waiting for send slot: %w", err)
		}

		inserted, err := c.post(ctx, data)
		if err == nil {
			return inserted, nil
		}
		if errors.Is(err, errPermanent) {
			return false, err
		}
		lastErr = err
	}
	return false, fmt.Errorf("after %d attempts: %w", sendAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/workout-logs", bytes.NewReader(data))
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var out sendResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return false, fmt.Errorf("decoding response: %w", err)
		}
		return out.Inserted, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return false, fmt.Errorf("send failed (status %d): %s", resp.StatusCode, body)
	default:
		return false, fmt.Errorf("%w (status %d): %s", errPermanent, resp.StatusCode, body)
	}
}

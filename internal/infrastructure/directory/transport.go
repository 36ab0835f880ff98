package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/reportcentral/console/internal/api/metrics"
	"github.com/reportcentral/console/internal/core/domain"
	"github.com/reportcentral/console/internal/core/ports"
)

// call describes one backend request.
type call struct {
	op     string
	public bool
	method string
	path   string
	creds  ports.Credentials
	body   any
	out    any
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	ForceLogout bool   `json:"force_logout"`
	Reason      string `json:"reason"`
}

func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}

func (c *Client) do(ctx context.Context, k call) (err error) {
	start := time.Now()
	defer func() {
		metrics.DirectoryRequestDuration.WithLabelValues(k.op).Observe(time.Since(start).Seconds())
		metrics.DirectoryRequestsTotal.WithLabelValues(k.op, outcome(err)).Inc()
	}()

	var token string
	if !k.public {
		if k.creds == nil {
			return domain.ErrUnauthorized
		}
		if token = k.creds.BearerToken(); token == "" {
			return domain.ErrUnauthorized
		}
	}

	var payload []byte
	if k.body != nil {
		if payload, err = json.Marshal(k.body); err != nil {
			return fmt.Errorf("%s: encode request: %w", k.op, err)
		}
	}

	resp, err := c.send(ctx, k, token, payload)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Warn().Err(err).Str("operation", k.op).Msg("directory unreachable")
		return fmt.Errorf("%w (%s)", domain.ErrNetwork, k.op)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized && !k.public:
		return c.unauthorized(ctx, k, resp)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return apiError(resp)
	case k.out == nil || resp.StatusCode == http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(k.out); err != nil && !errors.Is(err, io.EOF) {
		return &domain.APIError{Status: http.StatusBadGateway, Message: "invalid response from backend"}
	}
	return nil
}

// send issues the request. GETs go through the retrying client; everything
// else is attempted once.
func (c *Client) send(ctx context.Context, k call, token string, payload []byte) (*http.Response, error) {
	target := c.base.String() + k.path

	if k.method == http.MethodGet {
		req, err := retryablehttp.NewRequestWithContext(ctx, k.method, target, nil)
		if err != nil {
			return nil, err
		}
		setHeaders(req.Header, token, false)
		return c.reads.Do(req)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, k.method, target, body)
	if err != nil {
		return nil, err
	}
	setHeaders(req.Header, token, payload != nil)
	return c.writes.Do(req)
}

func setHeaders(h http.Header, token string, withBody bool) {
	h.Set("Accept", "application/json")
	if withBody {
		h.Set("Content-Type", "application/json")
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}

// unauthorized clears the session before reporting, so no caller can keep
// using a profile the backend no longer honours.
func (c *Client) unauthorized(ctx context.Context, k call, resp *http.Response) error {
	body := readErrorBody(resp)

	if err := k.creds.Invalidate(context.WithoutCancel(ctx)); err != nil {
		c.log.Error().Err(err).Str("operation", k.op).Msg("failed to clear rejected session")
	}

	if body.ForceLogout {
		reason := body.Reason
		if reason == "" {
			reason = DefaultLogoutReason
		}
		c.log.Info().Str("operation", k.op).Str("reason", reason).Msg("forced logout")
		return &domain.ForceLogoutError{Reason: reason, Message: body.text()}
	}
	return domain.ErrUnauthorized
}

func apiError(resp *http.Response) error {
	return &domain.APIError{Status: resp.StatusCode, Message: readErrorBody(resp).text()}
}

func readErrorBody(resp *http.Response) errorBody {
	var body errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body)
	return body
}

func outcome(err error) string {
	var apiErr *domain.APIError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrForceLogout):
		return "force_logout"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	case errors.As(err, &apiErr) && apiErr.Status >= 500:
		return "server_error"
	case errors.As(err, &apiErr):
		return "client_error"
	default:
		return "error"
	}
}

// leveledLogger routes retryablehttp's logs to zerolog.
type leveledLogger struct {
	log zerolog.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.log.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.log.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.log.Trace().Fields(kv).Msg(msg) }

package node

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/yndnr/mixrelay-go/internal/core/domain"
	"github.com/yndnr/mixrelay-go/internal/telemetry/logger"
)

// basicAuthUser is the user name the node expects alongside its API secret.
const basicAuthUser = "grin"

// Config configures a Client.
type Config struct {
	// URL is the foreign API endpoint, e.g. http://127.0.0.1:3413/v2/foreign.
	URL string

	// SecretPath is a file holding the API secret. Empty disables auth.
	SecretPath string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of attempts for transient transport errors.
	MaxRetries int

	// RetryWait is the base backoff, doubled on each retry.
	RetryWait time.Duration
}

// DefaultConfig returns the client defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:        url,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryWait:  500 * time.Millisecond,
	}
}

// Client talks to a node's foreign JSON-RPC API.
type Client struct {
	url        string
	secret     string
	httpClient *http.Client
	maxRetries int
	retryWait  time.Duration
	log        logger.Logger
}

// New creates a Client. The API secret, if configured, is read once here.
func New(cfg Config, log logger.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("node: url is required")
	}
	if log == nil {
		log = logger.Default()
	}

	var secret string
	if cfg.SecretPath != "" {
		data, err := os.ReadFile(cfg.SecretPath)
		if err != nil {
			return nil, fmt.Errorf("node: read api secret: %w", err)
		}
		secret = strings.TrimSpace(string(data))
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	return &Client{
		url:        cfg.URL,
		secret:     secret,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryWait:  cfg.RetryWait,
		log:        log.With("component", "node"),
	}, nil
}

// GetOutput looks commit up in the UTXO set. It returns nil when the node
// does not know the output.
func (c *Client) GetOutput(ctx context.Context, commit domain.Commitment) (*Output, error) {
	params := []any{[]string{commit.String()}, nil, nil, false, false}

	var outputs []Output
	if err := c.call(ctx, "get_outputs", params, &outputs); err != nil {
		return nil, err
	}
	for i := range outputs {
		if outputs[i].Commit == commit.String() {
			return &outputs[i], nil
		}
	}
	return nil, nil
}

// GetTip returns the node's chain head.
func (c *Client) GetTip(ctx context.Context) (*Tip, error) {
	var tip Tip
	if err := c.call(ctx, "get_tip", []any{}, &tip); err != nil {
		return nil, err
	}
	return &tip, nil
}

// IsUnspent reports whether commit is in the UTXO set and not spent.
func (c *Client) IsUnspent(ctx context.Context, commit domain.Commitment) (bool, error) {
	out, err := c.GetOutput(ctx, commit)
	if err != nil {
		return false, err
	}
	return out != nil && !out.Spent, nil
}

// TipHeight returns the height of the node's chain head.
func (c *Client) TipHeight(ctx context.Context) (uint64, error) {
	tip, err := c.GetTip(ctx)
	if err != nil {
		return 0, err
	}
	return tip.Height, nil
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return fmt.Errorf("node %s: encode request: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.retryWait * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		env, err := c.do(ctx, body)
		if err == nil {
			return env.decode(method, result)
		}
		lastErr = err
		if !isRetryableError(err) || ctx.Err() != nil {
			return fmt.Errorf("node %s: %w", method, err)
		}
		c.log.Warn("node request failed, retrying",
			"method", method,
			"attempt", attempt+1,
			"error", err)
	}

	return fmt.Errorf("node %s: failed after %d attempts: %w", method, c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (envelope, error) {
	var env envelope

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return env, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.SetBasicAuth(basicAuthUser, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return env, err
	}
	defer cleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env, fmt.Errorf("received status code: %d", resp.StatusCode)
	}

	if err := json2.DecodeClientResponse(resp.Body, &env); err != nil {
		return env, fmt.Errorf("decode response: %w", err)
	}
	return env, nil
}

// cleanlyCloseBody drains and closes an HTTP response body so the
// connection can be reused.
func cleanlyCloseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

// isRetryableError checks if a transport error is transient.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe")
}

package orm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Client is the host backend surface every dashboard component talks through.
type Client interface {
	// SearchRead returns the rows of model matching domain, restricted to fields.
	SearchRead(ctx context.Context, model string, domain Domain, fields []string, opts SearchOptions) ([]Record, error)
	// SearchCount returns the number of rows of model matching domain.
	SearchCount(ctx context.Context, model string, domain Domain) (int, error)
	// Call invokes a model method with positional args and keyword args and returns the
	// raw result, which may be plain data or an action descriptor.
	Call(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error)
}

// ErrAuthentication is returned when the backend rejects the configured credentials.
var ErrAuthentication = errors.New("orm: authentication failed")

// RPCError is the error object of a failed JSON-RPC call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Debug   string `json:"debug"`
	} `json:"data"`
}

// Error prefers the server's user-facing message.
func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.Data.Message); msg != "" {
		return msg
	}
	return e.Message
}

// CallObserver receives the outcome of every remote call.
type CallObserver interface {
	ObserveCall(model, method string, err error, elapsed time.Duration)
}

// Config configures the JSON-RPC client.
type Config struct {
	URL      string
	DB       string
	Login    string
	Password string
	Timeout  time.Duration
}

// JSONRPC implements Client against the backend's /jsonrpc endpoint.
type JSONRPC struct {
	cfg        Config
	httpClient *http.Client
	observer   CallObserver

	mu  sync.Mutex
	uid int64

	seq atomic.Int64
}

// Option customises a JSONRPC client.
type Option func(*JSONRPC)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *JSONRPC) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithObserver attaches a call observer such as the Prometheus RPC metrics.
func WithObserver(o CallObserver) Option {
	return func(c *JSONRPC) { c.observer = o }
}

// NewJSONRPC constructs a client. Authentication happens lazily on first use.
func NewJSONRPC(cfg Config, opts ...Option) *JSONRPC {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &JSONRPC{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchRead implements Client.
func (c *JSONRPC) SearchRead(ctx context.Context, model string, domain Domain, fields []string, opts SearchOptions) ([]Record, error) {
	raw, err := c.execute(ctx, model, "search_read", []any{domain}, opts.kwargs(fields))
	if err != nil {
		return nil, err
	}
	var rows []Record
	if err := decodeNumbers(raw, &rows); err != nil {
		return nil, fmt.Errorf("orm: decode %s.search_read: %w", model, err)
	}
	return rows, nil
}

// SearchCount implements Client.
func (c *JSONRPC) SearchCount(ctx context.Context, model string, domain Domain) (int, error) {
	raw, err := c.execute(ctx, model, "search_count", []any{domain}, nil)
	if err != nil {
		return 0, err
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("orm: decode %s.search_count: %w", model, err)
	}
	return count, nil
}

// Call implements Client.
func (c *JSONRPC) Call(ctx context.Context, model, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	return c.execute(ctx, model, method, args, kwargs)
}

func (c *JSONRPC) execute(ctx context.Context, model, method string, args []any, kwargs map[string]any) (result json.RawMessage, err error) {
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveCall(model, method, err, time.Since(start))
		}
	}()

	uid, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return c.rpc(ctx, "object", "execute_kw", []any{c.cfg.DB, uid, c.cfg.Password, model, method, args, kwargs})
}

func (c *JSONRPC) authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.uid > 0 {
		return c.uid, nil
	}
	raw, err := c.rpc(ctx, "common", "authenticate", []any{c.cfg.DB, c.cfg.Login, c.cfg.Password, map[string]any{}})
	if err != nil {
		return 0, err
	}
	var uid int64
	if err := json.Unmarshal(raw, &uid); err != nil || uid <= 0 {
		return 0, ErrAuthentication
	}
	c.uid = uid
	return uid, nil
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      int64          `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *JSONRPC) rpc(ctx context.Context, service, method string, args []any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "call",
		Params:  map[string]any{"service": service, "method": method, "args": args},
		ID:      c.seq.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("orm: encode request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.URL, "/") + "/jsonrpc"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("orm: %s.%s: %w", service, method, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("orm: %s.%s returned status %d", service, method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("orm: decode response: %w", err)
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	return envelope.Result, nil
}

func decodeNumbers(raw json.RawMessage, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(dest)
}

// DecodeRecords decodes a raw call result into records with exact integer handling.
func DecodeRecords(raw json.RawMessage) ([]Record, error) {
	var rows []Record
	if err := decodeNumbers(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Package komodo is a minimal client for the Komodo orchestrator API: it
// submits execute requests and polls the resulting updates to completion.
package komodo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	executePath = "/execute"
	readPath    = "/read"

	defaultPollInterval = 2 * time.Second
	maxErrorBodyBytes   = 4 << 10
)

// Client talks to one Komodo instance. It is safe for sequential use; this
// tool never issues concurrent calls.
type Client struct {
	baseURL      string
	apiKey       string
	apiSecret    string
	httpClient   *http.Client
	pollInterval time.Duration
	log          *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPollInterval sets the delay between update status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLogger attaches a logger for request-level debug output.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds a client for the given instance. Credentials are sent as
// X-Api-Key / X-Api-Secret headers on every request.
func NewClient(baseURL, apiKey, apiSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
		log:          zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiRequest struct {
	Type   string `json:"type"`
	Params any    `json:"params"`
}

func (c *Client) post(ctx context.Context, path string, body apiRequest) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s request", body.Type)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, errors.Wrapf(err, "build %s request", body.Type)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Secret", c.apiSecret)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", body.Type, c.baseURL+path)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", body.Type)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := strings.TrimSpace(string(payload))
		if len(detail) > maxErrorBodyBytes {
			detail = detail[:maxErrorBodyBytes]
		}
		return nil, errors.Errorf("%s: %s: %s", body.Type, resp.Status, detail)
	}
	return payload, nil
}

// Execute submits one execution request and returns the raw response, which
// is an update document or, for batch operations, a list of them.
func (c *Client) Execute(ctx context.Context, reqType string, params any) (json.RawMessage, error) {
	c.log.Debugw("executing", "type", reqType)
	return c.post(ctx, executePath, apiRequest{Type: reqType, Params: params})
}

// GetUpdate fetches the current state of one update.
func (c *Client) GetUpdate(ctx context.Context, id string) (Update, error) {
	raw, err := c.getUpdateRaw(ctx, id)
	if err != nil {
		return Update{}, err
	}
	var update Update
	if err := json.Unmarshal(raw, &update); err != nil {
		return Update{}, errors.Wrapf(err, "decode update %s", id)
	}
	return update, nil
}

func (c *Client) getUpdateRaw(ctx context.Context, id string) (json.RawMessage, error) {
	return c.post(ctx, readPath, apiRequest{
		Type:   requestGetUpdate,
		Params: map[string]string{"id": id},
	})
}

// ExecuteAndPoll submits an execution and blocks until every update in the
// response reaches a terminal status, returning the response with each
// polled update replaced by its final document. Elements without a usable
// identifier (batch error payloads) pass through untouched. Polling has no
// deadline of its own; bound ctx to get one.
func (c *Client) ExecuteAndPoll(ctx context.Context, reqType string, params any) (json.RawMessage, error) {
	payload, err := c.Execute(ctx, reqType, params)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return payload, nil
	}
	if trimmed[0] != '[' {
		final, err := c.pollElement(ctx, trimmed)
		if err != nil {
			return nil, err
		}
		return final, nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, errors.Wrapf(err, "decode %s response", reqType)
	}
	for i, element := range elements {
		final, err := c.pollElement(ctx, element)
		if err != nil {
			return nil, err
		}
		elements[i] = final
	}
	reassembled, err := json.Marshal(elements)
	if err != nil {
		return nil, errors.Wrapf(err, "reassemble %s response", reqType)
	}
	return reassembled, nil
}

// pollElement waits for one response element to finish if it names an
// update, otherwise returns it as-is.
func (c *Client) pollElement(ctx context.Context, element json.RawMessage) (json.RawMessage, error) {
	var probe struct {
		ID ObjectID `json:"_id"`
	}
	if err := json.Unmarshal(element, &probe); err != nil || probe.ID.OID == "" {
		return element, nil
	}
	return c.waitComplete(ctx, probe.ID.OID)
}

// errPending marks an update that has not reached a terminal status yet.
var errPending = errors.New("update still in progress")

func (c *Client) waitComplete(ctx context.Context, id string) (json.RawMessage, error) {
	var final json.RawMessage
	err := retry.Do(
		func() error {
			raw, err := c.getUpdateRaw(ctx, id)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			var update Update
			if err := json.Unmarshal(raw, &update); err != nil {
				return retry.Unrecoverable(errors.Wrapf(err, "decode update %s", id))
			}
			if update.Status != StatusComplete {
				c.log.Debugw("update pending", "id", id, "status", update.Status)
				return errPending
			}
			final = raw
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(c.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return final, nil
}

// Package httpsubmit posts instruction payloads to the intake backend as
// multipart/form-data: the JSON payload in the "payload" field and every
// attachment as an "attachments[]" file part.
package httpsubmit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/client"
	"go.uber.org/zap"

	"github.com/goliatone/go-instructform/pkg/model"
	"github.com/goliatone/go-instructform/pkg/submission"
	"github.com/goliatone/go-instructform/pkg/validation"
)

const (
	// Path is appended to the endpoint.
	Path = "/api/instructions"
	// PayloadField carries the JSON payload.
	PayloadField = "payload"
	// AttachmentField carries each attachment.
	AttachmentField = "attachments[]"

	defaultTimeout = 30 * time.Second
)

// Option customises a Client.
type Option func(*Client)

// WithTimeout bounds every request. The orchestrator never cancels a
// submission, so this is the only limit on a stuck call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegistry enables mapping of backend field errors onto registry paths.
func WithRegistry(reg *model.Registry) Option {
	return func(c *Client) {
		c.registry = reg
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers[key] = value
		}
	}
}

// Client implements submission.Submitter over HTTP.
type Client struct {
	endpoint string
	timeout  time.Duration
	headers  map[string]string
	registry *model.Registry
	logger   *zap.Logger
	http     *client.Client
}

var _ submission.Submitter = (*Client)(nil)

// New returns a Client posting to endpoint + Path.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		timeout:  defaultTimeout,
		headers:  map[string]string{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.http = client.New()
	c.http.SetTimeout(c.timeout)
	return c
}

// URL returns the target URL.
func (c *Client) URL() string {
	return c.endpoint + Path
}

// Submit posts payload. Transport failures and non-2xx responses are
// returned as *submission.SubmissionRejected.
func (c *Client) Submit(ctx context.Context, payload submission.Payload) error {
	if c.endpoint == "" {
		return errors.New("httpsubmit: endpoint is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("httpsubmit: encode payload: %w", err)
	}

	req := c.http.R()
	req.SetContext(ctx)
	for key, value := range c.headers {
		req.SetHeader(key, value)
	}
	req.SetFormData(PayloadField, string(body))

	readers := make([]io.ReadCloser, 0, len(payload.Attachments))
	defer func() {
		for _, rc := range readers {
			_ = rc.Close()
		}
	}()
	for _, file := range payload.Attachments {
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("httpsubmit: open attachment %s: %w", file.Name(), err)
		}
		readers = append(readers, rc)
		req.AddFiles(client.AcquireFile(
			client.SetFileName(file.Name()),
			client.SetFileFieldName(AttachmentField),
			client.SetFileReader(rc),
		))
	}

	started := time.Now()
	resp, err := req.Post(c.URL())
	if err != nil {
		c.logger.Warn("instruction post failed", zap.String("url", c.URL()), zap.Error(err))
		return &submission.SubmissionRejected{Message: "Could not reach the server, please try again.", Err: err}
	}
	defer resp.Close()

	status := resp.StatusCode()
	c.logger.Debug("instruction posted",
		zap.String("url", c.URL()),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(started)),
	)
	if status >= 200 && status < 300 {
		return nil
	}
	return c.rejection(status, resp.Body())
}

// rejectionBody is the error document returned by the intake backend.
type rejectionBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) rejection(status int, body []byte) *submission.SubmissionRejected {
	rejected := &submission.SubmissionRejected{
		Status: status,
		Err:    fmt.Errorf("httpsubmit: unexpected status %d", status),
	}

	var doc rejectionBody
	if err := json.Unmarshal(body, &doc); err != nil {
		rejected.Message = fallbackMessage(status, body)
		return rejected
	}

	messages := []string{}
	if msg := strings.TrimSpace(doc.Message); msg != "" {
		messages = append(messages, msg)
	}
	if len(doc.Errors) > 0 {
		if c.registry != nil {
			mapping := validation.MapErrorPayload(c.registry, doc.Errors)
			rejected.Fields = mapping.FieldErrors()
			messages = append(messages, mapping.Form...)
		} else {
			for _, list := range doc.Errors {
				messages = append(messages, list...)
			}
		}
	}
	if len(messages) == 0 {
		rejected.Message = fallbackMessage(status, nil)
	} else {
		rejected.Message = strings.Join(messages, " ")
	}
	return rejected
}

func fallbackMessage(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return fmt.Sprintf("The server rejected the instruction (status %d).", status)
}

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hyperjump/kugiri/pkg/utils"
)

// Sender transmits one action to the end recipient.
type Sender interface {
	Send(ctx context.Context, a Action) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, a Action) error

// Send calls f(ctx, a).
func (f SenderFunc) Send(ctx context.Context, a Action) error {
	return f(ctx, a)
}

// WriterFormat is the output format of a WriterSender.
type WriterFormat string

const (
	// WriteText writes the message content followed by a blank line.
	WriteText WriterFormat = "text"
	// WriteNDJSON writes one JSON object per action.
	WriteNDJSON WriterFormat = "ndjson"
)

// WriterSender writes actions to an io.Writer.
type WriterSender struct {
	mu     sync.Mutex
	w      io.Writer
	format WriterFormat
}

// NewWriterSender returns a sender writing to w in the given format.
func NewWriterSender(w io.Writer, format WriterFormat) *WriterSender {
	return &WriterSender{w: w, format: format}
}

// Send writes a in full; a partial write is reported as an error.
func (s *WriterSender) Send(_ context.Context, a Action) error {
	var buf bytes.Buffer
	switch s.format {
	case WriteNDJSON:
		if err := json.NewEncoder(&buf).Encode(a); err != nil {
			return fmt.Errorf("encode action: %w", err)
		}
	default:
		buf.WriteString(a.Content)
		buf.WriteString("\n\n")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write action: %w", err)
	}
	return nil
}

const defaultWebhookTimeout = 10 * time.Second

// WebhookSender POSTs each action as JSON to a URL.
type WebhookSender struct {
	url     string
	client  *http.Client
	headers map[string]string
}

// WebhookOption configures a WebhookSender.
type WebhookOption func(*WebhookSender)

// WithHTTPClient sets the HTTP client (default: a client with a 10s timeout).
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(s *WebhookSender) {
		if c != nil {
			s.client = c
		}
	}
}

// WithHeaders adds headers to every request, e.g. an Authorization token.
func WithHeaders(h map[string]string) WebhookOption {
	return func(s *WebhookSender) {
		for k, v := range h {
			s.headers[k] = v
		}
	}
}

// NewWebhookSender returns a sender posting to url.
func NewWebhookSender(url string, opts ...WebhookOption) *WebhookSender {
	s := &WebhookSender{
		url:     url,
		client:  &http.Client{Timeout: defaultWebhookTimeout},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send posts a and treats any non-2xx response as an error.
func (s *WebhookSender) Send(ctx context.Context, a Action) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, utils.Truncate(string(b), 200))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the EmailJS REST endpoint.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// HTTPConfig configures an HTTP mail relay speaking the EmailJS send API.
type HTTPConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string

	// RatePerSecond and Burst bound outgoing requests. Zero means 1/s.
	RatePerSecond float64
	Burst         int
	RetryMax      int
	Timeout       time.Duration
}

// HTTP sends messages to a mail relay over HTTP, retrying transient
// failures.
type HTTP struct {
	cfg     HTTPConfig
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

// NewHTTP returns an HTTP notifier for cfg.
func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := retryablehttp.NewClient()
	client.Logger = slog.Default()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = cfg.Timeout

	return &HTTP{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

type sendRequest struct {
	ServiceID      string  `json:"service_id"`
	TemplateID     string  `json:"template_id"`
	UserID         string  `json:"user_id"`
	AccessToken    string  `json:"accessToken,omitempty"`
	TemplateParams Message `json:"template_params"`
}

// Send posts m to the relay.
func (h *HTTP) Send(ctx context.Context, m Message) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for send slot: %w", err)
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      h.cfg.ServiceID,
		TemplateID:     h.cfg.TemplateID,
		UserID:         h.cfg.PublicKey,
		AccessToken:    h.cfg.PrivateKey,
		TemplateParams: m,
	})
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, h.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail relay returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
	return nil
}

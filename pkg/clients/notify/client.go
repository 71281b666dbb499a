package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dallastaras/nutrikpi/internal/config"
)

// Client delivers digests to district staff.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Message is the webhook payload.
type Message struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	DistrictID string `json:"district_id"`
	HighWaste  bool   `json:"high_waste"`
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.NotifyConfig) *WebhookClient {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &WebhookClient{
		httpClient: restyClient,
		url:        cfg.WebhookURL,
	}
}

// apiError represents an error payload returned by the webhook receiver.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Send posts the message to the webhook.
func (c *WebhookClient) Send(ctx context.Context, msg Message) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("notification webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return nil
}

// Noop discards messages. It is used when no webhook is configured.
type Noop struct{}

// Send implements Client.
func (Noop) Send(context.Context, Message) error { return nil }

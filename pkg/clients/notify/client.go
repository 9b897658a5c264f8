package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// TransferEvent is posted whenever a transfer is created.
type TransferEvent struct {
	Type          string  `json:"type"`
	InvoiceNumber string  `json:"invoiceNumber"`
	Date          string  `json:"date"`
	FromStore     string  `json:"fromStore"`
	ToStore       string  `json:"toStore"`
	Category      string  `json:"category"`
	Net           float64 `json:"net"`
	OutPDF        string  `json:"outPdf"`
	InPDF         string  `json:"inPdf"`
}

// Client exposes the outbound notification hook.
type Client interface {
	NotifyTransfer(ctx context.Context, event TransferEvent) error
}

// WebhookClient is a resty-backed implementation of Client.
type WebhookClient struct {
	httpClient *resty.Client
	url        string
}

// NewWebhookClient posts JSON events to url.
func NewWebhookClient(url string) *WebhookClient {
	restyClient := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &WebhookClient{httpClient: restyClient, url: url}
}

// webhookError mirrors the error body most chat webhooks return.
type webhookError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NotifyTransfer posts the event.
func (c *WebhookClient) NotifyTransfer(ctx context.Context, event TransferEvent) error {
	if event.Type == "" {
		event.Type = "transfer.created"
	}

	apiErr := new(webhookError)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		SetError(apiErr).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("post transfer webhook: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error
		}
		return fmt.Errorf("transfer webhook error: code=%d, message=%s", resp.StatusCode(), message)
	}
	return nil
}

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "spigell/recruit-panel"

// Webhook posts every event as JSON to a fixed URL.
type Webhook struct {
	client *resty.Client
	url    string
}

func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", contentType)
	return &Webhook{client: client, url: url}
}

func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(ev).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("bad status: %s", resp.Status())
	}
	return nil
}

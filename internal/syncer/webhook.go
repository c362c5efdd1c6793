package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// endpointHost is the substring the relay endpoint URL must contain. The
// relay runs as a user-deployed Google Apps Script web app.
const endpointHost = "script.google.com"

// DefaultDispatchTimeout bounds one fire-and-forget call.
const DefaultDispatchTimeout = 15 * time.Second

// Sentinel errors for sync dispatch.
var (
	ErrNoEndpoint  = errors.New("no sync endpoint configured")
	ErrBadEndpoint = errors.New("sync endpoint does not look like a script.google.com URL")
)

// SheetPayload is the wire shape of a spreadsheet push.
type SheetPayload struct {
	Action string     `json:"action"`
	Rows   [][]string `json:"rows"`
}

// CalendarPayload is the wire shape of a calendar-event push.
type CalendarPayload struct {
	Action      string `json:"action"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// Transport delivers one payload to the external endpoint. Fire and forget:
// implementations return an error only when the call itself fails; response
// content is never inspected for success.
type Transport interface {
	Dispatch(ctx context.Context, payload any) error
}

// ValidateEndpoint rejects endpoint URLs before any network call.
func ValidateEndpoint(url string) error {
	if url == "" {
		return ErrNoEndpoint
	}
	if !strings.Contains(url, endpointHost) {
		return ErrBadEndpoint
	}
	return nil
}

// WebhookTransport posts JSON payloads to the relay endpoint.
type WebhookTransport struct {
	endpoint string
	client   *http.Client
}

// NewWebhookTransport validates the endpoint URL and returns a transport.
func NewWebhookTransport(endpoint string) (*WebhookTransport, error) {
	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}
	return &WebhookTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultDispatchTimeout},
	}, nil
}

// Dispatch posts the payload. The response body is drained and discarded;
// the script's reply carries no machine-readable status.
func (w *WebhookTransport) Dispatch(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch sync: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WhatsAppOptions configures the Cloud API client
type WhatsAppOptions struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	CountryCode   string
	Timeout       time.Duration
}

// WhatsAppClient sends text messages through the WhatsApp Business Cloud API
type WhatsAppClient struct {
	endpoint    string
	accessToken string
	countryCode string
	httpClient  *http.Client
}

type textMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

// NewWhatsAppClient creates a client posting to {base}/{version}/{phone_number_id}/messages
func NewWhatsAppClient(opts WhatsAppOptions) *WhatsAppClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppClient{
		endpoint: fmt.Sprintf("%s/%s/%s/messages",
			strings.TrimRight(opts.BaseURL, "/"), opts.APIVersion, opts.PhoneNumberID),
		accessToken: opts.AccessToken,
		countryCode: opts.CountryCode,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Send posts one text message. Non-2xx responses are returned as errors.
func (c *WhatsAppClient) Send(ctx context.Context, phone, body string) error {
	to, err := Recipient(c.countryCode, phone)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textPayload{PreviewURL: false, Body: body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}

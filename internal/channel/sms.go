package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hray3182/catcare/internal/notify"
)

// SMSConfig points at a Twilio-compatible messages API.
type SMSConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
}

// SMS delivers notifications through the Twilio REST messages endpoint.
type SMS struct {
	cfg    SMSConfig
	client *http.Client
}

func NewSMS(cfg SMSConfig, client *http.Client) (*SMS, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, errors.New("sms account sid, auth token and sender are required")
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &SMS{cfg: cfg, client: client}, nil
}

func (s *SMS) Name() string { return "twilio" }

type smsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *SMS) Send(ctx context.Context, to string, p notify.Payload) error {
	if strings.TrimSpace(to) == "" {
		return notify.ErrMissingPhone
	}
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.From)
	form.Set("Body", ShortText(p))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.cfg.BaseURL, url.PathEscape(s.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	var apiErr smsError
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("sms api returned %d: %s (code %d)", resp.StatusCode, apiErr.Message, apiErr.Code)
	}
	return fmt.Errorf("sms api returned %d", resp.StatusCode)
}

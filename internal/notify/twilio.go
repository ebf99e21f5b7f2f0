package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender sends SMS through the Twilio Messages REST API with
// plain net/http, form-encoded like the voice control client.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpc      *http.Client
}

type TwilioSenderConfig struct {
	AccountSID string
	AuthToken  string
	From       string

	// BaseURL overrides the Twilio API host, used by tests.
	BaseURL string

	HTTPTimeout time.Duration
}

func NewTwilioSender(cfg TwilioSenderConfig) (*TwilioSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("notify: twilio credentials and sender number are required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultTwilioBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
		baseURL:    strings.TrimRight(base, "/"),
		httpc:      &http.Client{Timeout: timeout},
	}, nil
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("notify: twilio %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var res struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("notify: decode response: %w", err)
	}
	if res.Sid == "" {
		return "", fmt.Errorf("notify: response missing message sid")
	}
	return res.Sid, nil
}

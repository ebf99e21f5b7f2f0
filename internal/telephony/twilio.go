package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meshahzad92/Inbound-Calling/internal/calls"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

// Twilio error codes that mean the target call is no longer live.
// 20404: resource not found, 21220: call is not in-progress.
const (
	twilioCodeNotFound      = 20404
	twilioCodeNotInProgress = 21220
)

// TwilioClient implements ControlClient against the Twilio Calls REST API.
// It deliberately uses plain net/http with form encoding instead of a
// provider SDK.
type TwilioClient struct {
	accountSID string
	authToken  string
	baseURL    string
	httpc      *http.Client
}

type TwilioClientConfig struct {
	AccountSID string
	AuthToken  string

	// BaseURL overrides the Twilio API host, used by tests.
	BaseURL string

	HTTPTimeout time.Duration
}

func NewTwilioClient(cfg TwilioClientConfig) (*TwilioClient, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("telephony: twilio credentials are required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultTwilioBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TwilioClient{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    strings.TrimRight(base, "/"),
		httpc:      &http.Client{Timeout: timeout},
	}, nil
}

type twilioCallResource struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *TwilioClient) CreateCall(ctx context.Context, p CreateCallParams) (string, error) {
	form := url.Values{}
	form.Set("To", p.To)
	form.Set("From", p.From)
	form.Set("Twiml", p.Script)
	if p.RingTimeout > 0 {
		form.Set("Timeout", strconv.Itoa(int(p.RingTimeout/time.Second)))
	}

	var res twilioCallResource
	if err := c.do(ctx, http.MethodPost, c.callsURL(""), form, &res); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDialRejected, err)
	}
	if res.Sid == "" {
		return "", fmt.Errorf("%w: response missing call sid", ErrDialRejected)
	}
	return res.Sid, nil
}

func (c *TwilioClient) FetchStatus(ctx context.Context, legID string) (calls.LegStatus, error) {
	var res twilioCallResource
	if err := c.do(ctx, http.MethodGet, c.callsURL(legID), nil, &res); err != nil {
		return "", err
	}
	return mapTwilioStatus(res.Status), nil
}

func (c *TwilioClient) UpdateScript(ctx context.Context, legID, script string) error {
	form := url.Values{}
	form.Set("Twiml", script)
	return c.do(ctx, http.MethodPost, c.callsURL(legID), form, nil)
}

func (c *TwilioClient) Terminate(ctx context.Context, legID string) error {
	form := url.Values{}
	form.Set("Status", "completed")
	return c.do(ctx, http.MethodPost, c.callsURL(legID), form, nil)
}

func (c *TwilioClient) callsURL(legID string) string {
	if legID == "" {
		return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	}
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", c.baseURL, c.accountSID, url.PathEscape(legID))
}

func (c *TwilioClient) do(ctx context.Context, method, u string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var te twilioError
		_ = json.Unmarshal(raw, &te)
		if te.Code == twilioCodeNotFound || te.Code == twilioCodeNotInProgress {
			return fmt.Errorf("%w (code %d)", ErrLegEnded, te.Code)
		}
		if te.Message != "" {
			return fmt.Errorf("telephony: twilio %d: %s (code %d)", resp.StatusCode, te.Message, te.Code)
		}
		return fmt.Errorf("telephony: twilio %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("telephony: decode response: %w", err)
		}
	}
	return nil
}

// mapTwilioStatus normalizes Twilio's dashed status strings to internal
// leg statuses. Unknown values map to queued so polling keeps going.
func mapTwilioStatus(s string) calls.LegStatus {
	switch s {
	case "queued", "initiated":
		return calls.LegStatusQueued
	case "ringing":
		return calls.LegStatusRinging
	case "in-progress":
		return calls.LegStatusInProgress
	case "completed":
		return calls.LegStatusCompleted
	case "busy":
		return calls.LegStatusBusy
	case "no-answer":
		return calls.LegStatusNoAnswer
	case "failed":
		return calls.LegStatusFailed
	case "canceled":
		return calls.LegStatusCanceled
	default:
		return calls.LegStatusQueued
	}
}

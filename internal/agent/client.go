package agent

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

const defaultUltravoxBaseURL = "https://api.ultravox.ai"

// Client talks to the Ultravox calls API over plain net/http. It creates
// voice agent sessions and retrieves their state and transcript after
// the fact.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

type ClientConfig struct {
	APIKey string

	// BaseURL overrides the Ultravox API host, used by tests.
	BaseURL string

	HTTPTimeout time.Duration
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("agent: ultravox api key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultUltravoxBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

// CallParams configures a new agent session. TransferToolURL is handed
// to the agent as an invokable tool so it can request transfers mid-call.
type CallParams struct {
	SystemPrompt    string
	Voice           string
	TransferToolURL string
}

// Session is a created agent call. JoinURL is the media stream endpoint
// the caller leg gets connected to.
type Session struct {
	CallID  string
	JoinURL string
}

func (c *Client) CreateCall(ctx context.Context, p CallParams) (Session, error) {
	body := map[string]any{
		"model":                "fixie-ai/ultravox",
		"voice":                p.Voice,
		"temperature":          0.3,
		"systemPrompt":         p.SystemPrompt,
		"firstSpeakerSettings": map[string]any{"agent": map[string]any{}},
		"medium":               map[string]any{"twilio": map[string]any{}},
	}
	if p.TransferToolURL != "" {
		body["selectedTools"] = []map[string]any{
			{"toolName": "transferCall", "url": p.TransferToolURL},
		}
	}

	var res struct {
		CallID  string `json:"callId"`
		JoinURL string `json:"joinUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/calls", body, &res); err != nil {
		return Session{}, err
	}
	if res.CallID == "" || res.JoinURL == "" {
		return Session{}, fmt.Errorf("agent: create call response missing callId or joinUrl")
	}
	return Session{CallID: res.CallID, JoinURL: res.JoinURL}, nil
}

// CallState is the post-hoc view of a session. Ended is nil while the
// conversation is still running.
type CallState struct {
	CallID  string  `json:"callId"`
	Ended   *string `json:"ended"`
	Summary string  `json:"summary"`
}

func (c *Client) FetchCall(ctx context.Context, callID string) (CallState, error) {
	var res CallState
	if err := c.do(ctx, http.MethodGet, "/api/calls/"+callID, nil, &res); err != nil {
		return CallState{}, err
	}
	return res, nil
}

type transcriptMessage struct {
	Role   string `json:"role"`
	Text   string `json:"text"`
	Medium string `json:"medium"`
}

// FetchTranscript returns the conversation as readable text, one line
// per message.
func (c *Client) FetchTranscript(ctx context.Context, callID string) (string, error) {
	var res struct {
		Results []transcriptMessage `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/calls/"+callID+"/messages", nil, &res); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, m := range res.Results {
		role := "Unknown"
		switch m.Role {
		case "MESSAGE_ROLE_USER":
			role = "User"
		case "MESSAGE_ROLE_AGENT":
			role = "Agent"
		}
		medium := "(Text)"
		if m.Medium == "MESSAGE_MEDIUM_VOICE" {
			medium = "(Voice)"
		}
		text := m.Text
		if text == "" {
			text = "[No response]"
		}
		fmt.Fprintf(&b, "%s %s: %s\n", role, medium, text)
	}
	return b.String(), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("agent: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
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
		return fmt.Errorf("agent: ultravox %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("agent: decode response: %w", err)
		}
	}
	return nil
}

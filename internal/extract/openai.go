package extract

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

const defaultOpenAIBaseURL = "https://api.openai.com"

const extractionSystemPrompt = "You are a data extraction assistant. Return only valid JSON."

const extractionPromptTemplate = `Extract contact information from this phone call transcript. Return ONLY a JSON object with these exact fields:

- name: caller's full name (empty string if not found)
- phone: phone number (empty string if not found)
- email: email address (empty string if not found)
- organization: company/organization name (empty string if not found)
- summary: brief reason for calling (empty string if not found)
- department: what department the caller chose. Look for what they said like "viva", "casting", "press", "support", "sales", "management", "voicemail" or "option 1", "option 2", etc. If they said "option 1" or mentioned VIVA, return "viva". If they said "option 2" or mentioned casting, return "casting". If they said "option 3" or mentioned press, return "press". If they said "option 4" or mentioned support, return "support". If they said "option 5" or mentioned sales, return "sales". If they said "option 6" or mentioned management, return "management". If unclear, return "voicemail".

Transcript:
%s

Return only the JSON object, no other text.`

// OpenAIExtractor asks an OpenAI-compatible chat completions endpoint to
// structure the transcript. Low temperature keeps the output parseable.
type OpenAIExtractor struct {
	apiKey  string
	model   string
	baseURL string
	httpc   *http.Client
}

type OpenAIConfig struct {
	APIKey string
	Model  string

	// BaseURL overrides the API host, used by tests and compatible
	// providers.
	BaseURL string

	HTTPTimeout time.Duration
}

func NewOpenAIExtractor(cfg OpenAIConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("extract: openai api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIExtractor{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: strings.TrimRight(base, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (e *OpenAIExtractor) Extract(ctx context.Context, transcript string) (Contact, error) {
	req := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: extractionSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(extractionPromptTemplate, transcript)},
		},
		Temperature: 0.1,
	}

	raw, err := json.Marshal(req)
	if err != nil {
		return Contact{}, fmt.Errorf("extract: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return Contact{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(httpReq)
	if err != nil {
		return Contact{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Contact{}, err
	}
	if resp.StatusCode >= 400 {
		return Contact{}, fmt.Errorf("extract: openai %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Contact{}, fmt.Errorf("extract: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return Contact{}, fmt.Errorf("extract: response had no choices")
	}

	content := strings.TrimSpace(cr.Choices[0].Message.Content)
	// Models occasionally wrap JSON in a code fence despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var c Contact
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		return Contact{}, fmt.Errorf("extract: model returned invalid JSON: %w", err)
	}
	if c.Department == "" {
		c.Department = "voicemail"
	}
	return c, nil
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultOpenRouterModel is used when no model is configured.
const DefaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"

// openRouterKeyPrefix is the shape every OpenRouter secret starts
// with; anything else fails validation before any network traffic.
const openRouterKeyPrefix = "sk-or-"

// minSecretLength rejects obviously truncated secrets up front.
const minSecretLength = 16

// OpenRouterClient translates text through an OpenRouter-compatible
// chat-completions endpoint. Credentials are passed per call, not held
// by the client, because each content domain carries its own key.
type OpenRouterClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenRouterClient builds a client for the given endpoint. Empty
// arguments fall back to the public OpenRouter API and default model.
func NewOpenRouterClient(baseURL, model string) *OpenRouterClient {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = DefaultOpenRouterModel
	}
	return &OpenRouterClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// TranslateText sends one text blob for translation. Empty input
// short-circuits to an empty result without calling the provider.
func (c *OpenRouterClient) TranslateText(ctx context.Context, secret string, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}

	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": buildSystemPrompt(req.SourceLocale, req.TargetLocale)},
			{"role": "user", "content": req.Text},
		},
		"max_tokens": 4096,
	}

	text, err := c.chatCompletion(ctx, secret, body)
	if err != nil {
		return "", err
	}
	return text, nil
}

// ValidateCredential checks whether a secret is usable. A malformed
// secret (wrong prefix or too short) fails immediately with no network
// call; otherwise a minimal one-token completion exercises the key.
// Callers decide how to treat QuotaExceeded (see CredentialUsable).
func (c *OpenRouterClient) ValidateCredential(ctx context.Context, secret string) error {
	if !strings.HasPrefix(secret, openRouterKeyPrefix) || len(secret) < minSecretLength {
		return &Error{Kind: KindAuthInvalid, Msg: "malformed secret"}
	}

	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": "ping"},
		},
		"max_tokens": 1,
	}

	_, err := c.chatCompletion(ctx, secret, body)
	return err
}

func (c *OpenRouterClient) chatCompletion(ctx context.Context, secret string, body map[string]interface{}) (string, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindNetworkOrTimeout, Msg: "marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &Error{Kind: KindNetworkOrTimeout, Msg: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+secret)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &Error{Kind: KindNetworkOrTimeout, Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", &Error{Kind: KindEmptyResponse, Msg: "decode response", Err: err}
	}
	if len(completion.Choices) == 0 {
		return "", &Error{Kind: KindEmptyResponse, Msg: "no choices in response"}
	}

	text := cleanCompletion(completion.Choices[0].Message.Content)
	if text == "" {
		return "", &Error{Kind: KindEmptyResponse, Msg: "blank completion"}
	}
	return text, nil
}

// classifyStatus maps an HTTP status to the failure taxonomy. 401 and
// 429 must stay distinct: a validity check forgives quota exhaustion
// but not a rejected key.
func classifyStatus(status int) *Error {
	msg := fmt.Sprintf("status %d", status)
	switch status {
	case http.StatusUnauthorized:
		return &Error{Kind: KindAuthInvalid, Msg: msg}
	case http.StatusForbidden:
		return &Error{Kind: KindPermissionDenied, Msg: msg}
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return &Error{Kind: KindQuotaExceeded, Msg: msg}
	default:
		return &Error{Kind: KindNetworkOrTimeout, Msg: msg}
	}
}

func buildSystemPrompt(sourceLocale, targetLocale string) string {
	if sourceLocale == "" {
		sourceLocale = "the detected language"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are a professional translator. Translate the following text from %s to %s.\n", sourceLocale, targetLocale))
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, just the translation.")
	return sb.String()
}

// cleanCompletion strips the wrapping quotes and whitespace chat
// models occasionally add despite the prompt.
func cleanCompletion(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

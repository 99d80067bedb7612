// Package provider implements the text-completion backend adapter. The
// OpenRouter client deliberately returns degraded and failed completions as
// strings rather than errors: callers surface them to the end user verbatim.
package provider

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

const defaultBaseURL = "https://api.openrouter.ai/v1/chat/completions"

// RequestTimeout bounds a single completion call.
const RequestTimeout = 30 * time.Second

// Client is a minimal OpenRouter chat-completions client.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewClient creates a client. An empty apiKey puts the client in fallback
// mode: Complete echoes the prompt with a label instead of calling out.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: RequestTimeout},
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Configured reports whether a real API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// ---------------------------------------------------------------------------
// OpenRouter wire types
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompt and returns the reply text. Every outcome is
// content: a fallback echo when no key is configured, the model's reply on
// success, or a labeled error description on failure.
func (c *Client) Complete(ctx context.Context, prompt string) string {
	if !c.Configured() {
		return "(OpenRouter key missing) Fallback echo: " + prompt
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
		MaxTokens:   800,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Sprintf("(OpenRouter error) marshaling request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("(OpenRouter error) creating request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Sprintf("(OpenRouter error) %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var errResp chatResponse
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		}
		return fmt.Sprintf("(OpenRouter error) %s", msg)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Sprintf("(OpenRouter error) decoding response: %v", err)
	}
	if len(out.Choices) == 0 {
		return "(OpenRouter error) empty response"
	}
	return strings.TrimSpace(out.Choices[0].Message.Content)
}

// Package summarizer turns a raw provider document into a short
// natural-language assessment through an external chat-completions API.
// The summary is part of the persisted lookup record, so a failure here
// fails the whole submission.
package summarizer

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

	"github.com/tidwall/gjson"
)

// ErrSummarize indicates the collaborator failed to produce a summary.
var ErrSummarize = errors.New("summarizer error")

// systemPrompt frames the summarization request.
const systemPrompt = "You are a cybersecurity expert. Analyze the following threat intelligence data and provide a clear, concise summary in natural language. Focus on the key findings and potential risks."

// maxResponseBytes bounds collaborator response bodies.
const maxResponseBytes = 1 << 20

// Summarizer produces a natural-language summary for raw provider data.
type Summarizer interface {
	Summarize(ctx context.Context, providerData json.RawMessage) (string, error)
}

// ChatClient is a Summarizer backed by an OpenAI-compatible
// chat-completions endpoint.
type ChatClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewChatClient constructs a ChatClient. A missing credential is a
// configuration error.
func NewChatClient(baseURL, apiKey, model string, timeout time.Duration) (*ChatClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("summarizer: missing api key")
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("summarizer: missing base url")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("summarizer: missing model")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatClient{
		baseURL:    base,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// chatMessage is one entry in a chat-completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat-completions request body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// Summarize implements Summarizer.
func (c *ChatClient) Summarize(ctx context.Context, providerData json.RawMessage) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(providerData)},
		},
	}
	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrSummarize, errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if errReq != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrSummarize, errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarize, errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, errRead := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if errRead != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrSummarize, errRead)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrSummarize, resp.StatusCode)
	}

	summary := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrSummarize)
	}
	return summary, nil
}

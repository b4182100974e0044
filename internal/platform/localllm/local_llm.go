package localllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"chefai/internal/imagedata"
	"chefai/internal/platform"
	"chefai/internal/recipe"
)

const (
	// DefaultURL is the chat completions endpoint of a local LM Studio server.
	DefaultURL = "http://localhost:1234/v1/chat/completions"
	// DefaultModel is the vision model requested from the local server.
	DefaultModel = "gemma-3-12b-it:2"
)

// Client represents a client for an OpenAI-compatible local LLM. Local models
// have no web search, so replies never carry sources.
type Client struct {
	httpClient *http.Client
	apiURL     string
	model      string
}

// NewClient creates a new client for the local LLM.
func NewClient(apiURL, model string) *Client {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		httpClient: &http.Client{},
		apiURL:     apiURL,
		model:      model,
	}
}

// Name identifies the backend in logs.
func (c *Client) Name() string { return "local" }

// Request represents the request body for the local LLM.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Message represents a message in the request.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

// Content represents the content of a message.
type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents the image URL in the content.
type ImageURL struct {
	URL string `json:"url"`
}

// Response represents the response from the local LLM.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice represents a choice in the response.
type Choice struct {
	Message ResponseMessage `json:"message"`
}

// ResponseMessage represents a message in the response.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate sends the prompt with the image as a data URL and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string, img *imagedata.Image) (recipe.Reply, error) {
	reqBody := Request{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []Content{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &ImageURL{URL: img.DataURL()}},
				},
			},
		},
		Temperature: 1,
		MaxTokens:   2048,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return recipe.Reply{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(reqBytes))
	if err != nil {
		return recipe.Reply{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return recipe.Reply{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return recipe.Reply{}, fmt.Errorf("received non-OK status code: %d", resp.StatusCode)
	}

	var llmResp Response
	if err := json.NewDecoder(resp.Body).Decode(&llmResp); err != nil {
		return recipe.Reply{}, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(llmResp.Choices) == 0 || strings.TrimSpace(llmResp.Choices[0].Message.Content) == "" {
		return recipe.Reply{}, platform.ErrEmptyResponse
	}

	return recipe.Reply{Text: llmResp.Choices[0].Message.Content}, nil
}

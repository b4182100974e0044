package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"chefai/internal/imagedata"
	"chefai/internal/platform"
	"chefai/internal/recipe"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client calls Gemini through the genai library with Google Search grounding
// enabled, so replies come back with the web pages they cite.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	client *genai.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") + "/" }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new grounded Gemini client. An empty apiKey is accepted
// here and reported as platform.ErrMissingAPIKey on the first call.
func NewClient(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the backend in logs.
func (c *Client) Name() string { return "gemini" }

func (c *Client) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     c.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.client = client
	return client, nil
}

// Generate sends the prompt and the image in a single request and returns the
// reply text together with the grounding sources.
func (c *Client) Generate(ctx context.Context, prompt string, img *imagedata.Image) (recipe.Reply, error) {
	if c.apiKey == "" {
		return recipe.Reply{}, platform.ErrMissingAPIKey
	}
	client, err := c.genaiClient(ctx)
	if err != nil {
		return recipe.Reply{}, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return recipe.Reply{}, fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return recipe.Reply{}, fmt.Errorf("%w: blocked (%s)", platform.ErrEmptyResponse, resp.PromptFeedback.BlockReason)
		}
		return recipe.Reply{}, platform.ErrEmptyResponse
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			text.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return recipe.Reply{}, platform.ErrEmptyResponse
	}

	reply := recipe.Reply{Text: text.String()}
	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			reply.Sources = append(reply.Sources, recipe.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return reply, nil
}

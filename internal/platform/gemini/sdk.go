package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"chefai/internal/imagedata"
	"chefai/internal/platform"
	"chefai/internal/recipe"
)

// SDKClient talks to Gemini through the generative-ai-go SDK. The SDK has no
// search tool, so sources come from the candidate's citation metadata instead
// of search grounding.
type SDKClient struct {
	apiKey    string
	modelName string

	mu     sync.Mutex
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewSDKClient creates a new SDK-backed client. The underlying connection is
// opened on first use so a missing key surfaces as platform.ErrMissingAPIKey.
func NewSDKClient(apiKey, model string) *SDKClient {
	if model == "" {
		model = DefaultModel
	}
	return &SDKClient{apiKey: apiKey, modelName: model}
}

// Name identifies the backend in logs.
func (c *SDKClient) Name() string { return "gemini-sdk" }

func (c *SDKClient) generativeModel(ctx context.Context) (*genai.GenerativeModel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return c.model, nil
	}
	if c.apiKey == "" {
		return nil, platform.ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}
	c.client = client
	c.model = client.GenerativeModel(c.modelName)
	return c.model, nil
}

// Generate sends the image and the prompt and returns the reply text.
func (c *SDKClient) Generate(ctx context.Context, prompt string, img *imagedata.Image) (recipe.Reply, error) {
	model, err := c.generativeModel(ctx)
	if err != nil {
		return recipe.Reply{}, err
	}

	format := strings.TrimPrefix(img.MIMEType, "image/")
	resp, err := model.GenerateContent(ctx, genai.ImageData(format, img.Data), genai.Text(prompt))
	if err != nil {
		return recipe.Reply{}, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return recipe.Reply{}, platform.ErrEmptyResponse
	}

	cand := resp.Candidates[0]
	var text strings.Builder
	for _, p := range cand.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return recipe.Reply{}, platform.ErrEmptyResponse
	}

	reply := recipe.Reply{Text: text.String()}
	if cand.CitationMetadata != nil {
		for _, src := range cand.CitationMetadata.CitationSources {
			if src == nil || src.URI == nil {
				continue
			}
			reply.Sources = append(reply.Sources, recipe.Source{URI: *src.URI})
		}
	}
	return reply, nil
}

// Close releases the SDK connection if one was opened.
func (c *SDKClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client, c.model = nil, nil
	return err
}

package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefai/internal/imagedata"
	"chefai/internal/platform"
	"chefai/internal/recipe"
)

// mockGenerator is a mock of a model backend.
type mockGenerator struct {
	reply     recipe.Reply
	err       error
	gotPrompt string
	gotImage  *imagedata.Image
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(ctx context.Context, prompt string, img *imagedata.Image) (recipe.Reply, error) {
	m.gotPrompt = prompt
	m.gotImage = img
	return m.reply, m.err
}

func widePNG(t *testing.T) *imagedata.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20))))
	img, err := imagedata.FromBytes(buf.Bytes())
	require.NoError(t, err)
	return img
}

func TestAnalyze_Success(t *testing.T) {
	gen := &mockGenerator{reply: recipe.Reply{
		Text: "Detected Ingredients:\n- Egg\n- Tofu\n\nRecipe 1: Mapo Tofu\nCooking Style: Braised\nInstructions: Cook it well.",
		Sources: []recipe.Source{
			{URI: "https://example.com/a", Title: "A"},
			{URI: "https://example.com/a", Title: "A again"},
		},
	}}
	svc := NewService(gen, 10, nil)

	result, err := svc.Analyze(context.Background(), widePNG(t))
	require.NoError(t, err)

	assert.Equal(t, Prompt, gen.gotPrompt)
	assert.Equal(t, []string{"Egg", "Tofu"}, result.Ingredients)
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, "Mapo Tofu", result.Recipes[0].Name)
	assert.Equal(t, []recipe.Source{{URI: "https://example.com/a", Title: "A"}}, result.Sources)
	assert.Empty(t, result.Error)

	cfg, err := png.DecodeConfig(bytes.NewReader(gen.gotImage.Data))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
}

func TestAnalyze_UndecodableImageIsSentAsIs(t *testing.T) {
	gen := &mockGenerator{reply: recipe.Reply{Text: "Recipe 1: Congee"}}
	img := &imagedata.Image{MIMEType: "image/webp", Data: []byte("RIFF....WEBP")}

	_, err := NewService(gen, 10, nil).Analyze(context.Background(), img)
	require.NoError(t, err)
	assert.Same(t, img, gen.gotImage)
}

func TestAnalyze_NoIngredients(t *testing.T) {
	gen := &mockGenerator{reply: recipe.Reply{
		Text:    "No food ingredients detected.",
		Sources: []recipe.Source{{URI: "https://example.com"}},
	}}

	result, err := NewService(gen, 0, nil).Analyze(context.Background(), widePNG(t))
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Equal(t, recipe.NoIngredientsMessage, result.Error)
	assert.Empty(t, result.Ingredients)
	assert.Empty(t, result.Recipes)
	assert.Empty(t, result.Sources)
}

func TestAnalyze_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{"missing key", platform.ErrMissingAPIKey, KindConfig, configMessage},
		{"empty reply", platform.ErrEmptyResponse, KindService, serviceMessage},
		{"transport", errors.New("connection refused"), KindService, serviceMessage},
		{"deadline", fmt.Errorf("failed to send request: %w", context.DeadlineExceeded), KindTimeout, timeoutMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{err: tt.err}

			result, err := NewService(gen, 0, nil).Analyze(context.Background(), widePNG(t))
			assert.Nil(t, result)

			var ae *Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.kind, ae.Kind)
			assert.Equal(t, tt.message, ae.UserMessage())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

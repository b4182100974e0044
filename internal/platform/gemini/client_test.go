package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefai/internal/imagedata"
	"chefai/internal/platform"
	"chefai/internal/recipe"
)

var testImage = &imagedata.Image{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}}

// generateRequest is the part of the generateContent body the tests inspect.
type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MimeType string `json:"mimeType"`
				Data     []byte `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
	Tools []struct {
		GoogleSearch *struct{} `json:"googleSearch"`
	} `json:"tools"`
}

func TestGenerate_SendsGroundedRequest(t *testing.T) {
	var received generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Detected Ingredients:\n"}, {"text": "- Egg"}]},
				"groundingMetadata": {"groundingChunks": [
					{"web": {"uri": "https://example.com/eggs", "title": "Eggs"}},
					{"retrievedContext": {}}
				]}
			}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("secret", "test-model", WithBaseURL(srv.URL+"/"))
	reply, err := c.Generate(context.Background(), "find food", testImage)
	require.NoError(t, err)

	assert.Equal(t, "Detected Ingredients:\n- Egg", reply.Text)
	assert.Equal(t, []recipe.Source{{URI: "https://example.com/eggs", Title: "Eggs"}}, reply.Sources)

	require.Len(t, received.Contents, 1)
	assert.Equal(t, "user", received.Contents[0].Role)
	require.Len(t, received.Contents[0].Parts, 2)
	assert.Equal(t, "find food", received.Contents[0].Parts[0].Text)
	require.NotNil(t, received.Contents[0].Parts[1].InlineData)
	assert.Equal(t, "image/jpeg", received.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, testImage.Data, received.Contents[0].Parts[1].InlineData.Data)
	require.Len(t, received.Tools, 1)
	assert.NotNil(t, received.Tools[0].GoogleSearch)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	c := NewClient("", "")
	_, err := c.Generate(context.Background(), "prompt", testImage)
	assert.ErrorIs(t, err, platform.ErrMissingAPIKey)
}

func TestGenerate_EmptyResponse(t *testing.T) {
	bodies := []string{
		`{"candidates": []}`,
		`{"promptFeedback": {"blockReason": "SAFETY"}}`,
		`{"candidates": [{"content": {"parts": [{"text": "   "}]}}]}`,
	}
	for _, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}))

		c := NewClient("secret", "", WithBaseURL(srv.URL))
		_, err := c.Generate(context.Background(), "prompt", testImage)
		assert.ErrorIs(t, err, platform.ErrEmptyResponse, body)
		srv.Close()
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	c := NewClient("secret", "", WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), "prompt", testImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini generate")
	assert.Contains(t, err.Error(), "API key not valid")
	assert.NotErrorIs(t, err, platform.ErrEmptyResponse)
}

func TestSDKClient_MissingAPIKey(t *testing.T) {
	c := NewSDKClient("", "")
	_, err := c.Generate(context.Background(), "prompt", testImage)
	assert.ErrorIs(t, err, platform.ErrMissingAPIKey)
	assert.NoError(t, c.Close())
}

package recipe

import (
	"net/url"
	"strings"
)

// Recipe is one dish suggested for the detected ingredients.
type Recipe struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Style        string `json:"style"`
	Instructions string `json:"instructions"`
}

// Source is a web page the AI service cited while grounding its answer.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// AnalysisResult is the outcome of analyzing one photo.
type AnalysisResult struct {
	Ingredients []string `json:"ingredients"`
	Recipes     []Recipe `json:"recipes"`
	Sources     []Source `json:"sources,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Failed reports whether the result carries a user-facing error instead of recipes.
func (r *AnalysisResult) Failed() bool {
	return r != nil && r.Error != ""
}

// Reply is the raw answer of a model backend before parsing.
type Reply struct {
	Text    string
	Sources []Source
}

// DedupeSources drops sources without a URI and repeated URIs, keeping the
// first occurrence. Empty titles fall back to the URI host.
func DedupeSources(sources []Source) []Source {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		uri := strings.TrimSpace(s.URI)
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true

		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = hostOf(uri)
		}
		out = append(out, Source{URI: uri, Title: title})
	}
	return out
}

func hostOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return uri
	}
	return u.Host
}

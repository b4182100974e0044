// Package analysis sends ingredient photos to a model backend and turns the
// reply into recipes.
package analysis

import (
	"context"

	"go.uber.org/zap"

	"chefai/internal/imagedata"
	"chefai/internal/recipe"
)

// Generator is a model backend that answers a prompt about one image.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, img *imagedata.Image) (recipe.Reply, error)
}

// Service runs one analysis per call. It is safe for concurrent use as long
// as the Generator is.
type Service struct {
	gen      Generator
	maxWidth uint
	log      *zap.Logger
}

// NewService creates a Service. Images wider than maxWidth pixels are
// downscaled before upload; zero disables downscaling.
func NewService(gen Generator, maxWidth uint, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{gen: gen, maxWidth: maxWidth, log: log}
}

// Analyze asks the model about img and parses its reply.
//
// A reply saying no food was found is not an error: the returned result has
// its Error field set and no ingredients or recipes. Failures to get a reply
// at all are returned as *Error.
func (s *Service) Analyze(ctx context.Context, img *imagedata.Image) (*recipe.AnalysisResult, error) {
	upload := img
	if scaled, err := imagedata.Downscale(img, s.maxWidth); err != nil {
		s.log.Debug("sending image without downscaling", zap.String("mime", img.MIMEType), zap.Error(err))
	} else {
		upload = scaled
	}

	reply, err := s.gen.Generate(ctx, Prompt, upload)
	if err != nil {
		ae := classify(err)
		s.log.Error("analysis failed",
			zap.String("backend", s.gen.Name()),
			zap.Stringer("kind", ae.Kind),
			zap.Error(err),
		)
		return nil, ae
	}

	result := recipe.Parse(reply.Text)
	if result.Failed() {
		s.log.Info("no ingredients detected", zap.String("backend", s.gen.Name()))
		return result, nil
	}
	result.Sources = recipe.DedupeSources(reply.Sources)

	s.log.Info("analysis complete",
		zap.String("backend", s.gen.Name()),
		zap.Int("ingredients", len(result.Ingredients)),
		zap.Int("recipes", len(result.Recipes)),
		zap.Int("sources", len(result.Sources)),
	)
	return result, nil
}

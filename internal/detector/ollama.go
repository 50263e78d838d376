package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/placard-project/placard/internal/analysis"
	"github.com/placard-project/placard/pkg/formatting"
)

const detectionPrompt = `Detect every banner visible in this photo, along with any
privacy-sensitive regions (human faces and vehicle license plates).
Respond with JSON only, in exactly this shape:

{
  "banners": [
    {
      "tempId": "banner_0",
      "title": "the banner's central slogan or main phrase, or null if unreadable",
      "hashtags": ["keyword1", "keyword2"],
      "subjectType": "politician, party, other, or null",
      "bbox": { "x": 0.10, "y": 0.05, "width": 0.80, "height": 0.60 },
      "confidence": 0.95
    }
  ],
  "privacyRegions": [
    { "type": "face", "bbox": { "x": 0.10, "y": 0.05, "width": 0.08, "height": 0.12 } },
    { "type": "licensePlate", "bbox": { "x": 0.45, "y": 0.70, "width": 0.15, "height": 0.05 } }
  ]
}

Rules:
- Do not miss banners that appear small or far away.
- bbox values are fractions of the full image (0.0-1.0); x and y are the
  top-left corner, width and height the size.
- Assign tempId values banner_0, banner_1, and so on in order.
- hashtags: up to 12 keywords for topic, subject, demand, and place, without
  the # symbol, in the banner's own language.
- If there are no banners: { "banners": [], "privacyRegions": [] }`

type ollamaDetector struct {
	client *api.Client
	cfg    *Config
	logger *slog.Logger
}

// New creates a detector backed by an Ollama vision model.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse detector url: %w", err)
	}

	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &ollamaDetector{
		client: api.NewClient(base, http.DefaultClient),
		cfg:    cfg,
		logger: logger.With("system", "detector"),
	}, nil
}

func (d *ollamaDetector) Analyze(ctx context.Context, imageBytes []byte, mimeType string) (*analysis.Result, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.TimeoutDuration())
		defer cancel()
	}

	stream := false
	req := &api.ChatRequest{
		Model: d.cfg.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: detectionPrompt,
				Images:  []api.ImageData{api.ImageData(imageBytes)},
			},
		},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
	}

	var content string
	err := d.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vision model chat: %w", err)
	}

	raw, err := formatting.Parse[rawResult](content)
	if err != nil {
		return nil, fmt.Errorf("parse detection response: %w", err)
	}

	result := raw.normalize()
	d.logger.Info(
		"photo analyzed",
		"model", d.cfg.Model,
		"banners", len(result.Banners),
		"privacy_regions", len(result.PrivacyRegions),
	)

	return result, nil
}

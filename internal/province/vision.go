package province

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/i474232898/cuba-rates/internal/common"
	"github.com/i474232898/cuba-rates/internal/exchange"
	"github.com/i474232898/cuba-rates/internal/metrics"
)

const (
	DefaultVisionModel     = openai.GPT4o
	DefaultVisionMaxTokens = 2000
)

const extractionPrompt = `Analyze this image which contains a table with Cuban provincial exchange rates.
Extract the data and return it as a JSON array with the following structure:
[
  {
    "province": "Province Name",
    "usd": 123.45,
    "eur": 123.45,
    "mlc": 123.45
  }
]

Important:
- Return ONLY valid JSON, no markdown code blocks or extra text
- Use exact province names from the image
- Include all currencies shown (USD, EUR, MLC) as numbers
- If a currency is not shown for a province, omit that field
- Province names should be in Spanish as they appear in the image`

// ChatCompleter is the part of the OpenAI client the extractor needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// VisionConfig configures the vision extractor.
type VisionConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	// ImageURL is used when Extract is called without an explicit source.
	ImageURL string
	// ImagePath is the local image embedded as a data URI when no URL is known.
	ImagePath string
}

// Extraction is the outcome of one vision call, kept for diagnostics.
type Extraction struct {
	Rows        []RateData
	RawResponse string
}

// VisionExtractor reads province rates out of a table image with a vision model.
type VisionExtractor struct {
	cfg    VisionConfig
	client ChatCompleter
}

// NewVisionExtractor builds an extractor. A nil client is replaced by an
// OpenAI client for cfg.APIKey.
func NewVisionExtractor(cfg VisionConfig, client ChatCompleter) *VisionExtractor {
	if cfg.Model == "" {
		cfg.Model = DefaultVisionModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultVisionMaxTokens
	}
	if client == nil && cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}
	return &VisionExtractor{cfg: cfg, client: client}
}

// Extract sends imageSource (or the configured image) to the model and parses
// the table it reads back. RawResponse is filled whenever the model answered.
func (x *VisionExtractor) Extract(ctx context.Context, imageSource string) (Extraction, error) {
	if x.cfg.APIKey == "" || x.client == nil {
		return Extraction{}, &exchange.ConfigurationError{Key: "OPENAI_API_KEY"}
	}

	src, err := x.resolveImage(imageSource)
	if err != nil {
		return Extraction{}, err
	}

	resp, err := x.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     x.cfg.Model,
		MaxTokens: x.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: src}},
				},
			},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			return Extraction{}, &exchange.UpstreamError{Provider: "openai", StatusCode: apiErr.HTTPStatusCode}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
			return Extraction{}, &exchange.UpstreamError{Provider: "openai", StatusCode: reqErr.HTTPStatusCode}
		}
		return Extraction{}, &exchange.TransportError{Err: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return Extraction{}, exchange.ErrNoResponse
	}
	content := resp.Choices[0].Message.Content

	rows, err := ParseRates(content)
	if err != nil {
		return Extraction{RawResponse: content}, err
	}
	return Extraction{Rows: rows, RawResponse: content}, nil
}

// resolveImage validates an explicit URL or embeds the configured image.
func (x *VisionExtractor) resolveImage(imageSource string) (string, error) {
	if imageSource == "" {
		imageSource = x.cfg.ImageURL
	}
	if imageSource != "" {
		if !common.HasPrefixAny(imageSource, "http://", "https://") {
			return "", &exchange.ValidationError{Message: "Invalid image URL. Must be a valid HTTP/HTTPS URL"}
		}
		return imageSource, nil
	}
	if x.cfg.ImagePath == "" {
		return "", &exchange.ValidationError{Message: "no image URL or local image path configured"}
	}
	return dataURIFromFile(x.cfg.ImagePath)
}

// dataURIFromFile reads path and returns it as a base64 data URI.
func dataURIFromFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &exchange.TransportError{Err: fmt.Errorf("read image: %w", err)}
	}
	mt := mimetype.Detect(b)
	return fmt.Sprintf("data:%s;base64,%s", mt.String(), base64.StdEncoding.EncodeToString(b)), nil
}

// EstimateFromRows maps extracted rows onto known provinces. Rows whose name
// is not in the reference table, or that carry no USD rate, are dropped.
func EstimateFromRows(nationalRate float64, rows []RateData, now time.Time) exchange.ProvinceData {
	provinces := make([]exchange.ProvinceRate, 0, len(rows))
	for _, row := range rows {
		id, ok := IDForName(row.Province)
		if !ok || row.USD == nil {
			continue
		}
		provinces = append(provinces, exchange.ProvinceRate{
			ID:          id,
			Name:        row.Province,
			USDRate:     *row.USD,
			Variance:    VarianceOf(*row.USD, nationalRate),
			Coordinates: coordinatesFor(id),
		})
	}
	return exchange.ProvinceData{
		Provinces:    provinces,
		NationalRate: nationalRate,
		LastUpdated:  now.UTC(),
	}
}

// VisionEstimator estimates provinces from the configured table image.
// Extraction failures are logged and counted, then degrade to an empty breakdown.
type VisionEstimator struct {
	extractor *VisionExtractor
	log       *zap.Logger
	now       func() time.Time
}

func NewVisionEstimator(extractor *VisionExtractor, log *zap.Logger) *VisionEstimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &VisionEstimator{extractor: extractor, log: log, now: time.Now}
}

func (e *VisionEstimator) Name() string {
	return "vision"
}

func (e *VisionEstimator) Estimate(ctx context.Context, nationalRate float64) exchange.ProvinceData {
	res, err := e.extractor.Extract(ctx, "")
	if err != nil {
		kind := exchange.Kind(err)
		metrics.ProvinceFallbacks.WithLabelValues(e.Name(), kind).Inc()
		e.log.Warn("province extraction failed; serving empty breakdown",
			zap.String("kind", kind),
			zap.String("raw_response", res.RawResponse),
			zap.Error(err))
		return exchange.ProvinceData{
			Provinces:    []exchange.ProvinceRate{},
			NationalRate: nationalRate,
			LastUpdated:  e.now().UTC(),
		}
	}

	data := EstimateFromRows(nationalRate, res.Rows, e.now())
	if dropped := len(res.Rows) - len(data.Provinces); dropped > 0 {
		e.log.Info("dropped unmapped province rows", zap.Int("dropped", dropped), zap.Int("kept", len(data.Provinces)))
	}
	return data
}

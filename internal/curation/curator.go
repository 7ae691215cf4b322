// Package curation enriches collected places with an LLM-derived
// date-suitability judgment.
package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/llm"
	"github.com/ddalkkak/course-service/internal/observability"
)

// Default curation applied whenever the model call or its output fails.
// Trading curation quality for pipeline liveness: one bad response must
// never stall the batch.
var defaultCuration = domain.Curation{
	DateScore:      5,
	MoodTags:       []string{"일반적", "평범한"},
	PriceRange:     domain.PriceMid,
	BestTime:       domain.BestTimeMidday,
	Recommendation: "데이트 장소로 고려해볼 만한 곳입니다",
}

const curationPromptTemplate = `당신은 데이트 장소 큐레이터입니다. 아래 장소를 데이트 관점에서 평가해주세요.

장소명: %s
카테고리: %s
지역: %s
주소: %s

다음 JSON 형식으로만 답변하세요. 다른 텍스트는 포함하지 마세요.
{
  "date_score": 1-10 사이의 데이트 적합도 점수,
  "mood_tags": ["분위기를 나타내는 태그 최대 3개"],
  "price_range": "₩" | "₩₩" | "₩₩₩",
  "best_time": "아침" | "점심" | "저녁" | "야간",
  "recommendation": "50자 이내의 한 줄 추천 이유"
}`

// curationPayload mirrors the JSON the model is asked to produce.
type curationPayload struct {
	DateScore      int      `json:"date_score"`
	MoodTags       []string `json:"mood_tags"`
	PriceRange     string   `json:"price_range"`
	BestTime       string   `json:"best_time"`
	Recommendation string   `json:"recommendation"`
}

// Curator produces a Curation for a single place. Curate never fails: any
// model, network, or parse problem yields the default curation instead.
type Curator struct {
	completer llm.Completer
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewCurator creates a Curator over the given completer.
func NewCurator(completer llm.Completer, logger zerolog.Logger, metrics *observability.Metrics) *Curator {
	return &Curator{
		completer: completer,
		logger:    logger.With().Str("component", "curation").Logger(),
		metrics:   metrics,
	}
}

// DefaultCuration returns a copy of the fixed fallback judgment.
func DefaultCuration() domain.Curation {
	c := defaultCuration
	c.MoodTags = append([]string(nil), defaultCuration.MoodTags...)
	return c
}

// Curate evaluates one place. On any failure it returns the default curation
// rather than an error; the caller cannot distinguish except through logs and
// metrics.
func (c *Curator) Curate(ctx context.Context, place *domain.Place) domain.Curation {
	start := time.Now()
	logger := observability.WithPlaceContext(c.logger, place.KakaoPlaceID, place.Name)

	prompt := fmt.Sprintf(curationPromptTemplate,
		place.Name, place.CategoryName, place.Region, place.AddressName)

	resp, err := c.completer.Complete(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		logger.Warn().Err(err).Msg("curation call failed, using default curation")
		c.metrics.RecordCurationFallback()
		return DefaultCuration()
	}
	c.metrics.RecordLLMRequest("curation", resp.InputTokens, resp.OutputTokens)

	payload, err := parsePayload(resp.Text)
	if err != nil {
		logger.Warn().Err(err).Msg("curation response unparseable, using default curation")
		c.metrics.RecordCurationFallback()
		return DefaultCuration()
	}

	c.metrics.RecordPlaceCurated(time.Since(start).Seconds())
	return sanitize(payload)
}

// parsePayload extracts and decodes the curation JSON from the completion.
func parsePayload(text string) (*curationPayload, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var payload curationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decoding curation payload: %w", err)
	}
	return &payload, nil
}

// sanitize clamps model output into the fixed value sets so that a sloppy
// but parseable answer still yields a well-formed curation.
func sanitize(p *curationPayload) domain.Curation {
	score := p.DateScore
	if score < domain.MinDateScore {
		score = domain.MinDateScore
	}
	if score > domain.MaxDateScore {
		score = domain.MaxDateScore
	}

	tags := p.MoodTags
	if len(tags) > domain.MaxMoodTags {
		tags = tags[:domain.MaxMoodTags]
	}

	priceRange := p.PriceRange
	if !domain.ValidPriceRange(priceRange) {
		priceRange = defaultCuration.PriceRange
	}

	bestTime := p.BestTime
	if !domain.ValidBestTime(bestTime) {
		bestTime = defaultCuration.BestTime
	}

	recommendation := p.Recommendation
	if runes := []rune(recommendation); len(runes) > domain.MaxRecommendationRunes {
		recommendation = string(runes[:domain.MaxRecommendationRunes])
	}
	if recommendation == "" {
		recommendation = defaultCuration.Recommendation
	}

	return domain.Curation{
		DateScore:      score,
		MoodTags:       tags,
		PriceRange:     priceRange,
		BestTime:       bestTime,
		Recommendation: recommendation,
	}
}

// Package generation turns a validated request into a set of recommended
// date courses, guarding the LLM dependency with a circuit breaker and a
// deterministic rule-based fallback.
package generation

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

const generationPromptTemplate = `당신은 서울 데이트 코스 추천 전문가입니다.
아래 조건에 맞는 데이트 코스 3개를 추천해주세요.

조건:
- 지역: %s
- 데이트 유형: %s
- 예산: %d원

응답 형식 (JSON):
{
  "courses": [
    {
      "courseId": "c1",
      "title": "코스 제목",
      "places": [
        {
          "placeId": "p1",
          "name": "장소명",
          "category": "카테고리",
          "estimatedCost": 15000,
          "estimatedDuration": 60,
          "description": "설명"
        }
      ],
      "totalCost": 95000,
      "totalTime": "4.5시간"
    }
  ]
}

주의사항:
1. 각 코스는 3-5개의 장소로 구성
2. 총 비용은 예산의 ±10%% 이내
3. 이동 동선을 고려한 효율적인 경로
4. 각 장소마다 상세한 설명 포함
5. 반드시 JSON 형식으로만 응답`

// generationPayload mirrors the JSON the model is asked to produce.
// Missing fields decode to zero values; only a structurally invalid
// document is treated as a failure.
type generationPayload struct {
	Courses []coursePayload `json:"courses"`
}

type coursePayload struct {
	CourseID  string        `json:"courseId"`
	Title     string        `json:"title"`
	Places    []stopPayload `json:"places"`
	TotalCost int           `json:"totalCost"`
	TotalTime string        `json:"totalTime"`
}

type stopPayload struct {
	PlaceID           string `json:"placeId"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	EstimatedCost     int    `json:"estimatedCost"`
	EstimatedDuration int    `json:"estimatedDuration"`
	Description       string `json:"description"`
}

// Generator produces course sets for a generation request.
type Generator interface {
	Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error)
}

// LLMGenerator renders the course prompt, calls the model, and parses the
// JSON answer. Any call or parse failure is returned as an error so the
// circuit breaker can count it.
type LLMGenerator struct {
	completer llm.Completer
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewLLMGenerator creates an LLM-backed generator.
func NewLLMGenerator(completer llm.Completer, logger zerolog.Logger, metrics *observability.Metrics) *LLMGenerator {
	return &LLMGenerator{
		completer: completer,
		logger:    logger.With().Str("component", "generation").Logger(),
		metrics:   metrics,
	}
}

// Generate calls the model and maps its answer onto domain courses.
func (g *LLMGenerator) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	logger := observability.WithGenerationContext(g.logger, req.Region, req.DateType, req.Budget)
	logger.Info().Msg("requesting course generation")

	prompt := fmt.Sprintf(generationPromptTemplate, req.Region, req.DateType, req.Budget)
	start := time.Now()

	resp, err := g.completer.Complete(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		g.metrics.RecordLLMRequestFailed("generation", "call")
		return nil, fmt.Errorf("course generation call: %w", err)
	}
	g.metrics.RecordLLMRequest("generation", resp.InputTokens, resp.OutputTokens)

	courses, err := parseCourses(resp.Text)
	if err != nil {
		g.metrics.RecordLLMRequestFailed("generation", "parse")
		return nil, fmt.Errorf("course generation response: %w", err)
	}

	logger.Info().
		Int("courses", len(courses)).
		Dur("elapsed", time.Since(start)).
		Msg("course generation succeeded")
	return &domain.GenerationResult{Courses: courses}, nil
}

// parseCourses extracts the course array from the completion text.
func parseCourses(text string) ([]domain.Course, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var payload generationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decoding courses: %w", err)
	}
	if len(payload.Courses) == 0 {
		return nil, fmt.Errorf("completion contained no courses")
	}

	courses := make([]domain.Course, 0, len(payload.Courses))
	for _, cp := range payload.Courses {
		stops := make([]domain.Stop, 0, len(cp.Places))
		for _, sp := range cp.Places {
			stops = append(stops, domain.Stop{
				ID:                sp.PlaceID,
				Name:              sp.Name,
				Category:          sp.Category,
				EstimatedCost:     sp.EstimatedCost,
				EstimatedDuration: sp.EstimatedDuration,
				Description:       sp.Description,
			})
		}
		courses = append(courses, domain.Course{
			ID:        cp.CourseID,
			Title:     cp.Title,
			Stops:     stops,
			TotalCost: cp.TotalCost,
			TotalTime: cp.TotalTime,
		})
	}
	return courses, nil
}

package generation

import (
	"github.com/ddalkkak/course-service/internal/domain"
)

// FallbackGenerator builds the deterministic rule-based course used whenever
// the LLM path is unavailable. It cannot fail and needs no dependencies.
type FallbackGenerator struct{}

// Generate returns a single generic course: a cafe at 20% of budget, a
// restaurant at 40%, and a free walk, with the course total reported as 90%
// of budget. The result carries fallback-prefixed ids and the Fallback flag.
func (FallbackGenerator) Generate(req *domain.GenerationRequest) *domain.GenerationResult {
	stops := []domain.Stop{
		{
			ID:                "fallback-p1",
			Name:              req.Region + " 인기 카페",
			Category:          "카페",
			EstimatedCost:     int(float64(req.Budget) * 0.2),
			EstimatedDuration: 60,
			Description:       "여유로운 시간을 보낼 수 있는 카페",
		},
		{
			ID:                "fallback-p2",
			Name:              req.Region + " 맛집",
			Category:          "식당",
			EstimatedCost:     int(float64(req.Budget) * 0.4),
			EstimatedDuration: 90,
			Description:       "맛있는 식사를 즐길 수 있는 곳",
		},
		{
			ID:                "fallback-p3",
			Name:              req.Region + " 산책로",
			Category:          "야외",
			EstimatedCost:     0,
			EstimatedDuration: 60,
			Description:       "아름다운 경치를 즐기며 산책",
		},
	}

	course := domain.Course{
		ID:        "fallback-c1",
		Title:     req.Region + " " + req.DateType + " 기본 코스",
		Stops:     stops,
		TotalCost: int(float64(req.Budget) * 0.9),
		TotalTime: "3.5시간",
	}

	return &domain.GenerationResult{
		Courses:  []domain.Course{course},
		Fallback: true,
	}
}

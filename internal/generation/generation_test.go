package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/llm"
)

const validCoursesJSON = `{
  "courses": [
    {
      "courseId": "c1",
      "title": "홍대 감성 카페 투어",
      "places": [
        {"placeId": "p1", "name": "카페 온도", "category": "카페", "estimatedCost": 15000, "estimatedDuration": 60, "description": "분위기 좋은 카페"},
        {"placeId": "p2", "name": "연남 파스타", "category": "양식", "estimatedCost": 45000, "estimatedDuration": 90, "description": "수제 파스타 맛집"},
        {"placeId": "p3", "name": "경의선 숲길", "category": "야외", "estimatedCost": 0, "estimatedDuration": 60, "description": "산책하기 좋은 공원"}
      ],
      "totalCost": 60000,
      "totalTime": "3.5시간"
    },
    {"courseId": "c2", "title": "미식 코스", "places": [{"placeId": "p4", "name": "스시야", "category": "일식", "estimatedCost": 55000, "estimatedDuration": 120, "description": "오마카세"}], "totalCost": 55000, "totalTime": "2시간"},
    {"courseId": "c3", "title": "야경 코스", "places": [{"placeId": "p5", "name": "루프탑 바", "category": "바", "estimatedCost": 40000, "estimatedDuration": 120, "description": "야경이 보이는 바"}], "totalCost": 40000, "totalTime": "2시간"}
  ]
}`

// stubCompleter serves canned completions or errors in call order.
type stubCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	text := ""
	if i < len(s.responses) {
		text = s.responses[i]
	}
	return &llm.CompletionResult{Text: text, Model: "stub"}, nil
}

func validRequest() *domain.GenerationRequest {
	return &domain.GenerationRequest{
		Region:   domain.RegionHongdae,
		DateType: "감성데이트",
		Budget:   100000,
	}
}

func TestLLMGeneratorParsesCourses(t *testing.T) {
	stub := &stubCompleter{responses: []string{"```json\n" + validCoursesJSON + "\n```"}}
	g := NewLLMGenerator(stub, zerolog.Nop(), nil)

	result, err := g.Generate(context.Background(), validRequest())

	require.NoError(t, err)
	require.Len(t, result.Courses, 3)
	assert.False(t, result.Fallback)

	first := result.Courses[0]
	assert.Equal(t, "c1", first.ID)
	assert.Equal(t, "홍대 감성 카페 투어", first.Title)
	require.Len(t, first.Stops, 3)
	assert.Equal(t, "p1", first.Stops[0].ID)
	assert.Equal(t, 15000, first.Stops[0].EstimatedCost)
	assert.Equal(t, 60000, first.TotalCost)
	assert.Equal(t, "3.5시간", first.TotalTime)
}

func TestLLMGeneratorCallFailure(t *testing.T) {
	stub := &stubCompleter{errs: []error{errors.New("connection refused")}}
	g := NewLLMGenerator(stub, zerolog.Nop(), nil)

	_, err := g.Generate(context.Background(), validRequest())
	require.Error(t, err)
}

func TestLLMGeneratorParseFailure(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no JSON at all", "죄송합니다, 코스를 추천할 수 없습니다."},
		{"empty courses", `{"courses": []}`},
		{"wrong types", `{"courses": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{responses: []string{tt.text}}
			g := NewLLMGenerator(stub, zerolog.Nop(), nil)

			_, err := g.Generate(context.Background(), validRequest())
			require.Error(t, err)
		})
	}
}

func TestParseCoursesMissingFieldsDefaultToZero(t *testing.T) {
	courses, err := parseCourses(`{"courses": [{"title": "이름 없는 코스"}]}`)

	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Empty(t, courses[0].ID)
	assert.Zero(t, courses[0].TotalCost)
	assert.Empty(t, courses[0].Stops)
}

func TestFallbackGeneratorStructure(t *testing.T) {
	req := validRequest()
	result := FallbackGenerator{}.Generate(req)

	assert.True(t, result.Fallback)
	require.Len(t, result.Courses, 1)

	course := result.Courses[0]
	assert.Equal(t, "fallback-c1", course.ID)
	assert.Equal(t, "홍대 감성데이트 기본 코스", course.Title)
	assert.Equal(t, int(float64(req.Budget)*0.9), course.TotalCost)
	assert.Equal(t, "3.5시간", course.TotalTime)

	require.Len(t, course.Stops, 3)
	assert.Equal(t, "fallback-p1", course.Stops[0].ID)
	assert.Equal(t, int(float64(req.Budget)*0.2), course.Stops[0].EstimatedCost)
	assert.Equal(t, "fallback-p2", course.Stops[1].ID)
	assert.Equal(t, int(float64(req.Budget)*0.4), course.Stops[1].EstimatedCost)
	assert.Equal(t, "fallback-p3", course.Stops[2].ID)
	assert.Zero(t, course.Stops[2].EstimatedCost)
}

// failingGenerator always errors; countingGenerator records calls.
type failingGenerator struct{ calls int }

func (f *failingGenerator) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	f.calls++
	return nil, errors.New("model unavailable")
}

func TestBreakerRoutesFailureToFallback(t *testing.T) {
	gen := &failingGenerator{}
	b := NewBreaker(gen, BreakerConfig{}, zerolog.Nop(), nil)

	result, err := b.Invoke(context.Background(), validRequest())

	require.NoError(t, err)
	assert.True(t, result.Fallback)
	require.Len(t, result.Courses, 1)
	assert.Equal(t, "fallback-c1", result.Courses[0].ID)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	gen := &failingGenerator{}
	b := NewBreaker(gen, BreakerConfig{
		FailureThreshold: 3,
		OpenTimeout:      time.Minute,
	}, zerolog.Nop(), nil)

	for i := 0; i < 5; i++ {
		result, err := b.Invoke(context.Background(), validRequest())
		require.NoError(t, err)
		assert.True(t, result.Fallback)
	}

	// The open breaker short-circuits without touching the generator.
	assert.Equal(t, 3, gen.calls)
	assert.Equal(t, "open", b.State())
}

func TestBreakerNilRequest(t *testing.T) {
	b := NewBreaker(&failingGenerator{}, BreakerConfig{}, zerolog.Nop(), nil)

	_, err := b.Invoke(context.Background(), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

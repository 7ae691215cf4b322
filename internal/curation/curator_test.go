package curation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/llm"
)

// stubCompleter returns canned completions or errors in sequence.
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

func testPlace() *domain.Place {
	return &domain.Place{
		KakaoPlaceID: "26338954",
		Name:         "연남동 감성 카페",
		CategoryName: "음식점 > 카페",
		AddressName:  "서울 마포구 연남동 223-14",
		Region:       domain.RegionYeonnam,
	}
}

func newTestCurator(c llm.Completer) *Curator {
	return NewCurator(c, zerolog.Nop(), nil)
}

func TestCurateParsesModelOutput(t *testing.T) {
	stub := &stubCompleter{responses: []string{
		"```json\n{\"date_score\": 9, \"mood_tags\": [\"로맨틱\", \"조용한\"], \"price_range\": \"₩₩\", \"best_time\": \"저녁\", \"recommendation\": \"창가 자리가 분위기 좋은 카페\"}\n```",
	}}

	c := newTestCurator(stub)
	result := c.Curate(context.Background(), testPlace())

	assert.Equal(t, 9, result.DateScore)
	assert.Equal(t, []string{"로맨틱", "조용한"}, result.MoodTags)
	assert.Equal(t, domain.PriceMid, result.PriceRange)
	assert.Equal(t, domain.BestTimeEvening, result.BestTime)
	assert.Equal(t, "창가 자리가 분위기 좋은 카페", result.Recommendation)
}

func TestCurateReturnsDefaultOnCallFailure(t *testing.T) {
	stub := &stubCompleter{errs: []error{errors.New("connection refused")}}

	c := newTestCurator(stub)
	result := c.Curate(context.Background(), testPlace())

	assert.Equal(t, DefaultCuration(), result)
}

func TestCurateReturnsDefaultOnUnparseableOutput(t *testing.T) {
	stub := &stubCompleter{responses: []string{"죄송합니다, 평가할 수 없습니다."}}

	c := newTestCurator(stub)
	result := c.Curate(context.Background(), testPlace())

	assert.Equal(t, DefaultCuration(), result)
}

// Total-failure resilience: even a permanently failing dependency must yield
// well-formed curations.
func TestCurateTotalFailureResilience(t *testing.T) {
	stub := &stubCompleter{errs: []error{
		errors.New("timeout"), errors.New("timeout"), errors.New("timeout"),
	}}

	c := newTestCurator(stub)
	for i := 0; i < 3; i++ {
		result := c.Curate(context.Background(), testPlace())

		assert.GreaterOrEqual(t, result.DateScore, domain.MinDateScore)
		assert.LessOrEqual(t, result.DateScore, domain.MaxDateScore)
		assert.LessOrEqual(t, len(result.MoodTags), domain.MaxMoodTags)
		assert.True(t, domain.ValidPriceRange(result.PriceRange))
		assert.True(t, domain.ValidBestTime(result.BestTime))
		assert.LessOrEqual(t, len([]rune(result.Recommendation)), domain.MaxRecommendationRunes)
	}
}

func TestSanitizeClampsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name    string
		payload curationPayload
		check   func(t *testing.T, c domain.Curation)
	}{
		{
			name:    "score above max",
			payload: curationPayload{DateScore: 15, PriceRange: "₩", BestTime: "저녁"},
			check: func(t *testing.T, c domain.Curation) {
				assert.Equal(t, domain.MaxDateScore, c.DateScore)
			},
		},
		{
			name:    "score below min",
			payload: curationPayload{DateScore: -3, PriceRange: "₩", BestTime: "저녁"},
			check: func(t *testing.T, c domain.Curation) {
				assert.Equal(t, domain.MinDateScore, c.DateScore)
			},
		},
		{
			name: "too many tags",
			payload: curationPayload{
				DateScore: 5,
				MoodTags:  []string{"a", "b", "c", "d", "e"},
			},
			check: func(t *testing.T, c domain.Curation) {
				assert.Len(t, c.MoodTags, domain.MaxMoodTags)
			},
		},
		{
			name:    "invalid price tier",
			payload: curationPayload{DateScore: 5, PriceRange: "$$"},
			check: func(t *testing.T, c domain.Curation) {
				assert.Equal(t, domain.PriceMid, c.PriceRange)
			},
		},
		{
			name:    "invalid best time",
			payload: curationPayload{DateScore: 5, BestTime: "새벽"},
			check: func(t *testing.T, c domain.Curation) {
				assert.Equal(t, domain.BestTimeMidday, c.BestTime)
			},
		},
		{
			name: "overlong recommendation truncated",
			payload: curationPayload{
				DateScore:      5,
				Recommendation: "아주 아주 아주 아주 아주 아주 아주 아주 아주 아주 아주 아주 아주 아주 좋은 데이트 장소입니다",
			},
			check: func(t *testing.T, c domain.Curation) {
				assert.LessOrEqual(t, len([]rune(c.Recommendation)), domain.MaxRecommendationRunes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitize(&tt.payload)
			require.True(t, domain.ValidPriceRange(result.PriceRange))
			require.True(t, domain.ValidBestTime(result.BestTime))
			tt.check(t, result)
		})
	}
}

package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddalkkak/course-service/internal/curation"
	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/llm"
	"github.com/ddalkkak/course-service/internal/placesearch"
)

// fakeSearcher serves canned hits per query keyword and records queries.
type fakeSearcher struct {
	hits    map[string][]placesearch.Hit
	errs    map[string]error
	queries []placesearch.Query
}

func (f *fakeSearcher) Search(ctx context.Context, q placesearch.Query) ([]placesearch.Hit, error) {
	f.queries = append(f.queries, q)
	if err, ok := f.errs[q.Keyword]; ok {
		return nil, err
	}
	return f.hits[q.Keyword], nil
}

// memoryPlaceRepo stores places keyed by their external id.
type memoryPlaceRepo struct {
	byExternalID map[string]*domain.Place
}

func newMemoryPlaceRepo() *memoryPlaceRepo {
	return &memoryPlaceRepo{byExternalID: make(map[string]*domain.Place)}
}

func (m *memoryPlaceRepo) FindByExternalID(ctx context.Context, kakaoPlaceID string) (*domain.Place, error) {
	if p, ok := m.byExternalID[kakaoPlaceID]; ok {
		return p, nil
	}
	return nil, domain.NewNotFoundError("place", kakaoPlaceID)
}

func (m *memoryPlaceRepo) Save(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	m.byExternalID[place.KakaoPlaceID] = place
	return place, nil
}

func (m *memoryPlaceRepo) ListByRegion(ctx context.Context, region string) ([]*domain.Place, error) {
	var out []*domain.Place
	for _, p := range m.byExternalID {
		if p.Region == region {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPlaceRepo) ListUncurated(ctx context.Context, limit int) ([]*domain.Place, error) {
	var out []*domain.Place
	for _, p := range m.byExternalID {
		if !p.Curated() {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memoryPlaceRepo) CountByRegion(ctx context.Context, region string) (int, error) {
	n := 0
	for _, p := range m.byExternalID {
		if p.Region == region {
			n++
		}
	}
	return n, nil
}

// okCompleter always answers with a valid curation payload.
type okCompleter struct{}

func (okCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error) {
	return &llm.CompletionResult{
		Text: `{"date_score": 7, "mood_tags": ["아늑한"], "price_range": "₩₩", "best_time": "저녁", "recommendation": "분위기 좋은 곳"}`,
	}, nil
}

func makeHits(prefix string, n int) []placesearch.Hit {
	hits := make([]placesearch.Hit, n)
	for i := range hits {
		hits[i] = placesearch.Hit{
			ExternalID:   fmt.Sprintf("%s-%d", prefix, i),
			Name:         fmt.Sprintf("%s 장소 %d", prefix, i),
			CategoryName: "음식점 > 카페",
		}
	}
	return hits
}

func newTestOrchestrator(searcher Searcher, repo *memoryPlaceRepo, cfg Config) *Orchestrator {
	curator := curation.NewCurator(okCompleter{}, zerolog.Nop(), nil)
	runner := curation.NewRunner(curator, repo, time.Millisecond, zerolog.Nop(), nil)
	return NewOrchestrator(searcher, repo, runner, cfg, zerolog.Nop(), nil)
}

func TestCollectRegionUnsupportedRegion(t *testing.T) {
	o := newTestOrchestrator(&fakeSearcher{}, newMemoryPlaceRepo(), Config{})

	_, err := o.CollectRegion(context.Background(), "부산")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollectRegionQueriesEveryKeyword(t *testing.T) {
	searcher := &fakeSearcher{}
	o := newTestOrchestrator(searcher, newMemoryPlaceRepo(), Config{})

	_, err := o.CollectRegion(context.Background(), domain.RegionHongdae)
	require.NoError(t, err)

	require.Len(t, searcher.queries, len(searchKeywords))
	for i, q := range searcher.queries {
		assert.Equal(t, domain.RegionHongdae+" "+searchKeywords[i], q.Keyword)
		assert.Equal(t, DefaultSearchRadius, q.Radius)
		assert.InDelta(t, 126.9244, q.Longitude, 1e-9)
		assert.InDelta(t, 37.5563, q.Latitude, 1e-9)
	}
}

func TestCollectRegionSkipsKnownPlaces(t *testing.T) {
	hits := makeHits("cafe", 60)
	searcher := &fakeSearcher{hits: map[string][]placesearch.Hit{
		domain.RegionHongdae + " 카페": hits,
	}}

	repo := newMemoryPlaceRepo()
	for _, h := range hits[:10] {
		repo.byExternalID[h.ExternalID] = &domain.Place{KakaoPlaceID: h.ExternalID, Region: domain.RegionHongdae}
	}

	o := newTestOrchestrator(searcher, repo, Config{})
	collected, err := o.CollectRegion(context.Background(), domain.RegionHongdae)

	require.NoError(t, err)
	assert.Len(t, collected, 50)
	for _, p := range collected {
		assert.Equal(t, domain.RegionHongdae, p.Region)
	}
}

func TestCollectRegionIsIdempotent(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]placesearch.Hit{
		domain.RegionSeongsu + " 카페": makeHits("cafe", 20),
	}}
	repo := newMemoryPlaceRepo()
	o := newTestOrchestrator(searcher, repo, Config{})

	first, err := o.CollectRegion(context.Background(), domain.RegionSeongsu)
	require.NoError(t, err)
	assert.Len(t, first, 20)

	second, err := o.CollectRegion(context.Background(), domain.RegionSeongsu)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, repo.byExternalID, 20)
}

func TestCollectRegionStopsAtQuota(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]placesearch.Hit{
		domain.RegionGangnam + " 카페":   makeHits("cafe", 4),
		domain.RegionGangnam + " 레스토랑": makeHits("restaurant", 4),
	}}
	o := newTestOrchestrator(searcher, newMemoryPlaceRepo(), Config{QuotaPerRegion: 5})

	collected, err := o.CollectRegion(context.Background(), domain.RegionGangnam)

	require.NoError(t, err)
	assert.Len(t, collected, 5)
	// The quota check short-circuits the remaining keywords.
	assert.Len(t, searcher.queries, 2)
}

func TestCollectRegionQuotaFilledSkipsRemainingSearches(t *testing.T) {
	// The quota fills exactly at the end of the first keyword's hits; no
	// further provider searches may be issued.
	searcher := &fakeSearcher{hits: map[string][]placesearch.Hit{
		domain.RegionGangnam + " 카페":   makeHits("cafe", 4),
		domain.RegionGangnam + " 레스토랑": makeHits("restaurant", 4),
	}}
	o := newTestOrchestrator(searcher, newMemoryPlaceRepo(), Config{QuotaPerRegion: 4})

	collected, err := o.CollectRegion(context.Background(), domain.RegionGangnam)

	require.NoError(t, err)
	assert.Len(t, collected, 4)
	assert.Len(t, searcher.queries, 1)
}

func TestCollectRegionKeywordFailureIsolated(t *testing.T) {
	searcher := &fakeSearcher{
		hits: map[string][]placesearch.Hit{
			domain.RegionYeonnam + " 디저트": makeHits("dessert", 3),
		},
		errs: map[string]error{
			domain.RegionYeonnam + " 카페": errors.New("kakao unavailable"),
		},
	}
	o := newTestOrchestrator(searcher, newMemoryPlaceRepo(), Config{})

	collected, err := o.CollectRegion(context.Background(), domain.RegionYeonnam)

	require.NoError(t, err)
	assert.Len(t, collected, 3)
	assert.Len(t, searcher.queries, len(searchKeywords))
}

func TestCollectAndCurateAggregatesRegions(t *testing.T) {
	searcher := &fakeSearcher{hits: map[string][]placesearch.Hit{
		domain.RegionHongdae + " 카페": makeHits("hongdae", 2),
		domain.RegionGangnam + " 바":  makeHits("gangnam", 3),
	}}
	repo := newMemoryPlaceRepo()
	o := newTestOrchestrator(searcher, repo, Config{})

	collected, curated := o.CollectAndCurate(context.Background())

	assert.Equal(t, 5, collected)
	assert.Equal(t, 5, curated)
	for _, p := range repo.byExternalID {
		assert.True(t, p.Curated())
	}
}

func TestCollectAndCurateRegionFailureIsolated(t *testing.T) {
	// Every keyword search for 홍대 fails; the other regions still collect.
	errs := make(map[string]error)
	for _, kw := range searchKeywords {
		errs[domain.RegionHongdae+" "+kw] = errors.New("kakao unavailable")
	}
	searcher := &fakeSearcher{
		hits: map[string][]placesearch.Hit{
			domain.RegionItaewon + " 음식점": makeHits("itaewon", 2),
		},
		errs: errs,
	}
	o := newTestOrchestrator(searcher, newMemoryPlaceRepo(), Config{})

	collected, curated := o.CollectAndCurate(context.Background())

	assert.Equal(t, 2, collected)
	assert.Equal(t, 2, curated)
	// All regions were still attempted.
	regions := make(map[string]bool)
	for _, q := range searcher.queries {
		regions[strings.SplitN(q.Keyword, " ", 2)[0]] = true
	}
	assert.Len(t, regions, len(regionOrder))
}

func TestRecurate(t *testing.T) {
	repo := newMemoryPlaceRepo()
	repo.byExternalID["p1"] = &domain.Place{KakaoPlaceID: "p1", Region: domain.RegionHongdae}
	repo.byExternalID["p2"] = &domain.Place{KakaoPlaceID: "p2", Region: domain.RegionGangnam}

	o := newTestOrchestrator(&fakeSearcher{}, repo, Config{})
	curated, pending, err := o.Recurate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, curated)
	assert.Equal(t, 2, pending)
	for _, p := range repo.byExternalID {
		assert.True(t, p.Curated())
	}
}

func TestRegionsTableComplete(t *testing.T) {
	regions := Regions()
	assert.Equal(t, []string{
		domain.RegionHongdae,
		domain.RegionGangnam,
		domain.RegionSeongsu,
		domain.RegionYeonnam,
		domain.RegionItaewon,
	}, regions)

	for _, r := range regions {
		c, ok := RegionCoordinate(r)
		require.True(t, ok)
		assert.NotZero(t, c.Longitude)
		assert.NotZero(t, c.Latitude)
	}
}

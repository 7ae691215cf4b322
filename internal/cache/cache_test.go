package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ddalkkak/course-service/internal/domain"
)

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestCache(t *testing.T, ttl time.Duration) *ResponseCache {
	t.Helper()
	return New(newTestStore(t), ttl, zerolog.Nop(), nil)
}

func sampleResult() *domain.GenerationResult {
	return &domain.GenerationResult{
		RequestID:   "req-1",
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Courses: []domain.Course{
			{
				ID:        "course-1",
				Title:     "홍대 문화데이트 코스",
				TotalCost: 95000,
				TotalTime: "4시간",
				Stops: []domain.Stop{
					{ID: "p1", Name: "전시관", EstimatedCost: 30000},
				},
			},
		},
	}
}

func TestKeyDeterminism(t *testing.T) {
	r1 := domain.GenerationRequest{Region: "홍대", DateType: "문화데이트", Budget: 100000}
	r2 := domain.GenerationRequest{Region: "홍대", DateType: "문화데이트", Budget: 100000}

	assert.Equal(t, Key(r1), Key(r2))
	assert.True(t, strings.HasPrefix(Key(r1), "course:"))
}

func TestKeyVariesWithFields(t *testing.T) {
	base := domain.GenerationRequest{Region: "홍대", DateType: "문화데이트", Budget: 100000}

	diffBudget := base
	diffBudget.Budget = 50000
	assert.NotEqual(t, Key(base), Key(diffBudget), "different budget must yield a different key")

	diffRegion := base
	diffRegion.Region = "강남"
	assert.NotEqual(t, Key(base), Key(diffRegion))

	diffType := base
	diffType.DateType = "맛집투어"
	assert.NotEqual(t, Key(base), Key(diffType))
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t, time.Hour)
	req := domain.GenerationRequest{Region: "홍대", DateType: "문화데이트", Budget: 100000}

	_, ok := c.Get(req)
	assert.False(t, ok)

	want := sampleResult()
	c.Put(req, want)

	got, ok := c.Get(req)
	require.True(t, ok)
	assert.Equal(t, want.RequestID, got.RequestID)
	assert.Equal(t, want.Courses, got.Courses)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
}

func TestCacheEvict(t *testing.T) {
	c := newTestCache(t, time.Hour)
	req := domain.GenerationRequest{Region: "성수", DateType: "카페투어", Budget: 50000}

	c.Put(req, sampleResult())
	_, ok := c.Get(req)
	require.True(t, ok)

	c.Evict(req)
	_, ok = c.Get(req)
	assert.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	// TTL must be at least a full second: the store tracks expiry in Unix
	// seconds, so sub-second TTLs expire immediately.
	c := newTestCache(t, 2*time.Second)
	req := domain.GenerationRequest{Region: "이태원", DateType: "바투어", Budget: 80000}

	c.Put(req, sampleResult())
	_, ok := c.Get(req)
	require.True(t, ok)

	time.Sleep(2500 * time.Millisecond)
	_, ok = c.Get(req)
	assert.False(t, ok, "entry must expire after the TTL")
}

func TestNilStoreBehavesAsMiss(t *testing.T) {
	c := New(nil, time.Hour, zerolog.Nop(), nil)
	req := domain.GenerationRequest{Region: "홍대", DateType: "문화데이트", Budget: 100000}

	_, ok := c.Get(req)
	assert.False(t, ok)

	// Put and Evict must be safe no-ops.
	c.Put(req, sampleResult())
	c.Evict(req)
	_, ok = c.Get(req)
	assert.False(t, ok)
}

func TestNilCacheBehavesAsMiss(t *testing.T) {
	var c *ResponseCache
	req := domain.GenerationRequest{Region: "홍대", DateType: "문화데이트", Budget: 100000}

	_, ok := c.Get(req)
	assert.False(t, ok)
	c.Put(req, sampleResult())
	c.Evict(req)
}

func TestBadgerStoreDeleteAbsentKey(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Delete("course:missing"))
}

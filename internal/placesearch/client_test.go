package placesearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return New(Config{
		APIKey:        "test-key",
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		MaxRetries:    1,
		RetryDelay:    time.Millisecond,
		MaxRetryDelay: 5 * time.Millisecond,
		Pacing:        time.Millisecond,
	}, zerolog.Nop())
}

// fullPage builds a page of PageSize documents with sequential ids.
func fullPage(start int, isEnd bool) searchResponse {
	docs := make([]document, 0, PageSize)
	for i := 0; i < PageSize; i++ {
		id := strconv.Itoa(start + i)
		docs = append(docs, document{
			ID:              id,
			PlaceName:       "카페 " + id,
			CategoryName:    "음식점 > 카페",
			AddressName:     "서울 마포구",
			RoadAddressName: "서울 마포구 양화로",
			X:               "126.9244669",
			Y:               "37.5563059",
			PlaceURL:        "http://place.map.kakao.com/" + id,
		})
	}
	return searchResponse{
		Meta:      searchMeta{TotalCount: 100, PageableCount: 45, IsEnd: isEnd},
		Documents: docs,
	}
}

func TestSearch_PaginationBound(t *testing.T) {
	var requestCount atomic.Int32

	handler := func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		assert.Equal(t, "/v2/local/search/keyword.json", r.URL.Path)
		assert.Equal(t, "KakaoAK test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "15", r.URL.Query().Get("size"))
		assert.Equal(t, strconv.Itoa(int(count)), r.URL.Query().Get("page"))

		// Never reports is_end: the page cap must stop the loop.
		json.NewEncoder(w).Encode(fullPage(int(count-1)*PageSize, false))
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	hits, err := client.Search(context.Background(), Query{Keyword: "홍대 카페"})
	require.NoError(t, err)

	assert.Len(t, hits, PageSize*MaxPages)
	assert.Equal(t, int32(MaxPages), requestCount.Load())
}

func TestSearch_StopsOnIsEnd(t *testing.T) {
	var requestCount atomic.Int32

	handler := func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		json.NewEncoder(w).Encode(fullPage(0, true))
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	hits, err := client.Search(context.Background(), Query{Keyword: "홍대 카페"})
	require.NoError(t, err)

	assert.Len(t, hits, PageSize)
	assert.Equal(t, int32(1), requestCount.Load())
}

func TestSearch_StopsOnEmptyPage(t *testing.T) {
	var requestCount atomic.Int32

	handler := func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		if count == 1 {
			json.NewEncoder(w).Encode(fullPage(0, false))
			return
		}
		json.NewEncoder(w).Encode(searchResponse{
			Meta: searchMeta{IsEnd: false},
		})
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	hits, err := client.Search(context.Background(), Query{Keyword: "홍대 카페"})
	require.NoError(t, err)

	assert.Len(t, hits, PageSize)
	assert.Equal(t, int32(2), requestCount.Load())
}

func TestSearch_FirstPageFailureAborts(t *testing.T) {
	var requestCount atomic.Int32

	handler := func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	hits, err := client.Search(context.Background(), Query{Keyword: "홍대 카페"})
	require.Error(t, err)
	assert.Nil(t, hits)
	// 1 initial + 1 retry.
	assert.Equal(t, int32(2), requestCount.Load())
}

func TestSearch_LaterPageFailureReturnsPartial(t *testing.T) {
	var requestCount atomic.Int32

	handler := func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		requestCount.Add(1)
		if page == "1" {
			json.NewEncoder(w).Encode(fullPage(0, false))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	hits, err := client.Search(context.Background(), Query{Keyword: "홍대 카페"})
	require.NoError(t, err)
	assert.Len(t, hits, PageSize)
}

func TestSearch_ClientErrorNotRetried(t *testing.T) {
	var requestCount atomic.Int32

	handler := func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorType":"InvalidArgument","message":"size is out of range"}`))
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	hits, err := client.Search(context.Background(), Query{Keyword: ""})
	require.Error(t, err)
	assert.Nil(t, hits)
	assert.Equal(t, int32(1), requestCount.Load(), "client errors must not be retried")
	assert.Contains(t, err.Error(), "400")
}

func TestSearch_RetryThenSuccess(t *testing.T) {
	var requestCount atomic.Int32

	handler := func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		if count == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(fullPage(0, true))
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	hits, err := client.Search(context.Background(), Query{Keyword: "홍대 카페"})
	require.NoError(t, err)
	assert.Len(t, hits, PageSize)
	assert.Equal(t, int32(2), requestCount.Load())
}

func TestSearch_QueryParameters(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "강남 레스토랑", q.Get("query"))
		assert.Equal(t, "FD6", q.Get("category_group_code"))
		assert.Equal(t, "127.0276", q.Get("x"))
		assert.Equal(t, "37.4979", q.Get("y"))
		assert.Equal(t, "2000", q.Get("radius"))
		json.NewEncoder(w).Encode(fullPage(0, true))
	}

	srv := newSearchTestServer(t, handler)
	client := newTestClient(srv.URL)

	_, err := client.Search(context.Background(), Query{
		Keyword:           "강남 레스토랑",
		CategoryGroupCode: "FD6",
		Longitude:         127.0276,
		Latitude:          37.4979,
		Radius:            2000,
	})
	require.NoError(t, err)
}

func TestDocumentToHit(t *testing.T) {
	d := document{
		ID:        "12345",
		PlaceName: "연남동 카페",
		X:         "126.9264",
		Y:         "37.5652",
	}

	hit := d.toHit()
	assert.Equal(t, "12345", hit.ExternalID)
	assert.Equal(t, "연남동 카페", hit.Name)
	assert.InDelta(t, 126.9264, hit.Longitude, 0.0001)
	assert.InDelta(t, 37.5652, hit.Latitude, 0.0001)

	// Bad coordinates fall back to zero values.
	bad := document{ID: "9", X: "not-a-number", Y: ""}
	hit = bad.toHit()
	assert.Zero(t, hit.Longitude)
	assert.Zero(t, hit.Latitude)
}

package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/storefront/internal/cart"
	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(
		Config{URL: server.URL, Timeout: 2 * time.Second},
		func() string { return token },
		testLogger(),
	)
	require.NoError(t, err)
	return client, server
}

func int64Ptr(v int64) *int64 { return &v }

func Test_Client_FetchPage(t *testing.T) {
	// given
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/catalog", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, []string{"phones", "home"}, q["category"])
		assert.Equal(t, "v1", q.Get("vendor"))
		assert.Equal(t, "1000", q.Get("minPrice"))
		assert.Equal(t, "5000", q.Get("maxPrice"))
		assert.Equal(t, "4.5", q.Get("minRating"))
		assert.Equal(t, "true", q.Get("inStock"))
		assert.Equal(t, "pro", q.Get("q"))
		assert.Equal(t, "price_asc", q.Get("sort"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "12", q.Get("pageSize"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "r1", "name": "Pro Mouse", "price": 2000, "stock": 3},
			},
			"totalCount": 25,
		})
	})
	client, _ := newTestClient(t, handler, "")

	cfg := feed.Config{
		Filter: catalog.Filter{
			Categories: []string{"phones", "home"},
			Vendors:    []string{"v1"},
			MinPrice:   int64Ptr(1000),
			MaxPrice:   int64Ptr(5000),
			MinRating:  4.5,
			InStock:    true,
		},
		Sort:  catalog.SortPriceAsc,
		Query: "pro",
	}

	// when
	page, err := client.FetchPage(context.Background(), cfg, 2, 12)

	// then
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "r1", page.Items[0].ID)
	assert.Equal(t, 3, page.Items[0].Stock)
}

func Test_Client_FetchPage_NormalizesRecords(t *testing.T) {
	// given: one valid, one malformed, one needing defaults
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "ok", "name": "Fine", "price": 100, "salePrice": 80, "rating": 4.5, "stock": 2},
				{"name": "No ID", "price": 100},
				{"id": "odd", "name": "Odd", "price": 100, "salePrice": 150, "rating": 9.5, "stock": -4},
			},
			"totalCount": 3,
		})
	})
	client, _ := newTestClient(t, handler, "")

	// when
	page, err := client.FetchPage(context.Background(), feed.Config{}, 0, 12)

	// then: the malformed record is dropped, odd fields are normalized
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	ok := page.Items[0]
	assert.Equal(t, int64(80), ok.EffectivePrice())
	odd := page.Items[1]
	assert.Equal(t, int64(0), odd.SalePrice, "sale price above base is dropped")
	assert.Equal(t, 5.0, odd.Rating, "rating clamped to 5")
	assert.Equal(t, 0, odd.Stock, "negative stock defaults to zero")
}

func Test_Client_FetchPage_ServerError(t *testing.T) {
	// given
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client, _ := newTestClient(t, handler, "")
	// when
	_, err := client.FetchPage(context.Background(), feed.Config{}, 0, 12)
	// then
	assert.ErrorIs(t, err, ErrUnavailable)
}

func Test_Client_AddLine(t *testing.T) {
	// given
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/cart/add", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rec-1", body["recordId"])
		assert.Equal(t, float64(2), body["quantity"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"lineId": "srv-7", "quantity": 2})
	})
	client, _ := newTestClient(t, handler, "token-1")

	// when
	ref, err := client.AddLine(context.Background(), "rec-1", 2)

	// then
	require.NoError(t, err)
	assert.Equal(t, &cart.LineRef{LineID: "srv-7", RecordID: "rec-1", Quantity: 2}, ref)
}

func Test_Client_CartRequiresCredential(t *testing.T) {
	// given: no credential available
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	client, _ := newTestClient(t, handler, "")

	// when
	_, err := client.AddLine(context.Background(), "rec-1", 1)

	// then: precondition failure, no network call attempted
	assert.ErrorIs(t, err, cart.ErrUnauthorized)
	assert.Equal(t, int32(0), hits.Load())
}

func Test_Client_UpdateLine(t *testing.T) {
	// given
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/cart/update/srv-7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"lineId": "srv-7", "recordId": "rec-1", "quantity": 5})
	})
	client, _ := newTestClient(t, handler, "token-1")

	// when
	ref, err := client.UpdateLine(context.Background(), "srv-7", 5)

	// then
	require.NoError(t, err)
	assert.Equal(t, 5, ref.Quantity)
}

func Test_Client_CartErrorMapping(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		expected error
	}{
		{name: "expired credential", status: http.StatusUnauthorized, expected: cart.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, expected: cart.ErrUnauthorized},
		{name: "unknown line", status: http.StatusNotFound, expected: cart.ErrLineNotFound},
		{name: "server failure", status: http.StatusBadGateway, expected: ErrUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			client, _ := newTestClient(t, handler, "token-1")
			// when
			err := client.RemoveLine(context.Background(), "srv-7")
			// then
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_Client_ClearLines(t *testing.T) {
	// given
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/cart/clear", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	client, _ := newTestClient(t, handler, "token-1")
	// when
	err := client.ClearLines(context.Background())
	// then
	assert.NoError(t, err)
}

func Test_Client_InvalidConfig(t *testing.T) {
	_, err := NewClient(Config{}, nil, testLogger())
	assert.Error(t, err)
}

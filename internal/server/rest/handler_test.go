package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/storefront/internal/catalog"
	"github.com/abgdnv/storefront/internal/server/store"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	st.Seed([]catalog.Record{
		{ID: "rec-phone", Name: "Phone Pro", VendorID: "v1", VendorName: "Acme", Price: 5000, Rating: 4.5, Stock: 3, Category: "electronics", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "rec-mouse", Name: "Mouse", VendorID: "v2", VendorName: "Peripherals Inc", Price: 2000, SalePrice: 1500, Rating: 4.0, Stock: 10, Category: "electronics", CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "rec-mug", Name: "Mug", VendorID: "v3", VendorName: "Kitchenware", Price: 800, Rating: 3.5, Stock: 0, Category: "home", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	})
	h := NewHandler(st, 12, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := chi.NewRouter()
	h.RegisterRoutes(mux)
	return mux, st
}

func doJSON(t *testing.T, mux *chi.Mux, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCatalog_FilterAndSort(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when
	rec := doJSON(t, mux, http.MethodGet, "/catalog?category=electronics&sort=price_asc", "", nil)

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items      []catalog.Record `json:"items"`
		TotalCount int              `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalCount)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "rec-mouse", resp.Items[0].ID)
	assert.Equal(t, "rec-phone", resp.Items[1].ID)
}

func TestCatalog_Paging(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when
	rec := doJSON(t, mux, http.MethodGet, "/catalog?sort=price_asc&page=1&pageSize=2", "", nil)

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items      []catalog.Record `json:"items"`
		TotalCount int              `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalCount)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "rec-phone", resp.Items[0].ID)
}

func TestCatalog_MalformedParamsFallBack(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when: page and minPrice are not numbers
	rec := doJSON(t, mux, http.MethodGet, "/catalog?page=abc&minPrice=cheap", "", nil)

	// then: defaults apply instead of an error
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []catalog.Record `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 3)
}

func TestAddLine(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when
	rec := doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-mouse", "quantity": 2})

	// then: sale price is the unit price, line ID is server assigned
	require.Equal(t, http.StatusCreated, rec.Code)
	var line store.CartLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &line))
	assert.NotEmpty(t, line.LineID)
	assert.Equal(t, "rec-mouse", line.RecordID)
	assert.Equal(t, int64(1500), line.UnitPrice)
	assert.Equal(t, 2, line.Quantity)
}

func TestAddLine_ExistingRecordIncrements(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)
	first := doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-phone", "quantity": 1})
	require.Equal(t, http.StatusCreated, first.Code)
	var firstLine store.CartLine
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstLine))

	// when
	second := doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-phone", "quantity": 2})

	// then: same line, summed quantity
	require.Equal(t, http.StatusCreated, second.Code)
	var secondLine store.CartLine
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondLine))
	assert.Equal(t, firstLine.LineID, secondLine.LineID)
	assert.Equal(t, 3, secondLine.Quantity)
}

func TestAddLine_Unauthorized(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when: no Authorization header
	rec := doJSON(t, mux, http.MethodPost, "/cart/add", "", map[string]any{"recordId": "rec-phone", "quantity": 1})

	// then
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddLine_UnknownRecord(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when
	rec := doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-nope", "quantity": 1})

	// then
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddLine_InvalidQuantity(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when
	rec := doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-phone", "quantity": 0})

	// then
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateLine(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)
	added := doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-phone", "quantity": 1})
	require.Equal(t, http.StatusCreated, added.Code)
	var line store.CartLine
	require.NoError(t, json.Unmarshal(added.Body.Bytes(), &line))

	// when
	rec := doJSON(t, mux, http.MethodPut, "/cart/update/"+line.LineID, "tok-1", map[string]any{"quantity": 5})

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	var updated store.CartLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, line.LineID, updated.LineID)
	assert.Equal(t, 5, updated.Quantity)
}

func TestUpdateLine_NotFound(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when
	rec := doJSON(t, mux, http.MethodPut, "/cart/update/missing", "tok-1", map[string]any{"quantity": 5})

	// then
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveLine(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)
	added := doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-phone", "quantity": 1})
	var line store.CartLine
	require.NoError(t, json.Unmarshal(added.Body.Bytes(), &line))

	// when
	rec := doJSON(t, mux, http.MethodDelete, "/cart/delete/"+line.LineID, "tok-1", nil)

	// then
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, mux, http.MethodDelete, "/cart/delete/"+line.LineID, "tok-1", nil).Code)
}

func TestClearLines(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)
	doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-phone", "quantity": 1})
	doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-mouse", "quantity": 1})

	// when
	rec := doJSON(t, mux, http.MethodDelete, "/cart/clear", "tok-1", nil)

	// then
	assert.Equal(t, http.StatusNoContent, rec.Code)
	listed := doJSON(t, mux, http.MethodGet, "/cart/", "tok-1", nil)
	require.Equal(t, http.StatusOK, listed.Code)
	var lines []store.CartLine
	require.NoError(t, json.Unmarshal(listed.Body.Bytes(), &lines))
	assert.Empty(t, lines)
}

func TestCarts_IsolatedPerCredential(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)
	doJSON(t, mux, http.MethodPost, "/cart/add", "tok-1", map[string]any{"recordId": "rec-phone", "quantity": 1})

	// when
	listed := doJSON(t, mux, http.MethodGet, "/cart/", "tok-2", nil)

	// then
	require.Equal(t, http.StatusOK, listed.Code)
	var lines []store.CartLine
	require.NoError(t, json.Unmarshal(listed.Body.Bytes(), &lines))
	assert.Empty(t, lines)
}

func TestHealthCheck(t *testing.T) {
	// given
	mux, _ := newTestRouter(t)

	// when
	rec := doJSON(t, mux, http.MethodGet, "/healthz", "", nil)

	// then
	assert.Equal(t, http.StatusOK, rec.Code)
}

package rest_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"item-service/internal/adapters/rest"
	"item-service/internal/app"
	"item-service/internal/app/apptest"
	"item-service/internal/config"
	"item-service/internal/domain/health"
	"item-service/internal/domain/item"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type listBody struct {
	Items []item.Item `json:"items"`
	Total int         `json:"total"`
}

func newTestHandler(t *testing.T, repo *apptest.MemoryItemRepository, healthy bool) http.Handler {
	t.Helper()

	server := rest.NewServer(rest.ServerParams{
		Config: config.ServerConfig{
			Port:        "0",
			Host:        "127.0.0.1",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		ItemService: app.NewItemService(app.ItemServiceParams{
			ItemRepo: repo,
			Logger:   zerolog.Nop(),
		}),
		HealthService: app.NewHealthService(app.HealthServiceParams{
			Prober: apptest.StaticProber{Healthy: healthy},
			Logger: zerolog.Nop(),
		}),
		Logger: zerolog.Nop(),
	})
	return server.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createItem(t *testing.T, h http.Handler, body string) item.Item {
	t.Helper()

	rec := do(t, h, http.MethodPost, "/items", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /items: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[item.Item](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), false)

	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decode[health.Response](t, rec); body.Status != health.StatusHealthy || body.Timestamp.IsZero() {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		healthy    bool
		wantCode   int
		wantStatus health.Status
	}{
		{"store reachable", true, http.StatusOK, health.StatusHealthy},
		{"store unreachable", false, http.StatusServiceUnavailable, health.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, apptest.NewMemoryItemRepository(), tt.healthy)

			rec := do(t, h, http.MethodGet, "/ready", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if body := decode[health.Response](t, rec); body.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, body.Status)
			}
		})
	}
}

func TestCreateItem(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	created := createItem(t, h, `{"name":"Test Item","description":"A test"}`)
	if created.Name != "Test Item" {
		t.Errorf("expected name %q, got %q", "Test Item", created.Name)
	}
	if created.Description == nil || *created.Description != "A test" {
		t.Errorf("expected description %q, got %v", "A test", created.Description)
	}
	if created.ID == uuid.Nil {
		t.Error("expected a generated id")
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("created_at %v != updated_at %v", created.CreatedAt, created.UpdatedAt)
	}

	rec := do(t, h, http.MethodGet, "/items/"+created.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", rec.Code)
	}
	if got := decode[item.Item](t, rec); got.ID != created.ID || got.Name != created.Name {
		t.Errorf("unexpected item %+v", got)
	}
}

func TestCreateItemAcceptsLongMultibyteName(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	name := strings.Repeat("é", item.MaxNameLength)
	created := createItem(t, h, `{"name":"`+name+`","extra":true}`)
	if created.Name != name {
		t.Errorf("name was altered")
	}
	if created.Description != nil {
		t.Errorf("expected no description, got %q", *created.Description)
	}
}

func TestCreateItemRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"description":"x"}`},
		{"empty name", `{"name":""}`},
		{"name too long", `{"name":"` + strings.Repeat("a", item.MaxNameLength+1) + `"}`},
		{"name wrong type", `{"name":123}`},
		{"malformed json", `{"name":`},
		{"not an object", `["Test Item"]`},
		{"null body", `null`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := apptest.NewMemoryItemRepository()
			h := newTestHandler(t, repo, true)

			rec := do(t, h, http.MethodPost, "/items", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if body := decode[rest.ErrorResponse](t, rec); body.Detail == "" {
				t.Error("expected a detail message")
			}

			list := decode[listBody](t, do(t, h, http.MethodGet, "/items", ""))
			if list.Total != 0 {
				t.Errorf("invalid input reached the store: total=%d", list.Total)
			}
		})
	}
}

func TestListItemsRejectsBadPagination(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	for _, query := range []string{
		"limit=0",
		"limit=1001",
		"limit=abc",
		"limit=",
		"limit=1.5",
		"offset=-1",
		"offset=x",
	} {
		t.Run(query, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/items?"+query, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestListItemsNewestFirst(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	first := createItem(t, h, `{"name":"first"}`)
	second := createItem(t, h, `{"name":"second"}`)

	rec := do(t, h, http.MethodGet, "/items", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	list := decode[listBody](t, rec)
	if list.Total != 2 || len(list.Items) != 2 {
		t.Fatalf("expected 2 items, got total=%d len=%d", list.Total, len(list.Items))
	}
	if list.Items[0].ID != second.ID || list.Items[1].ID != first.ID {
		t.Errorf("expected newest first, got %s then %s", list.Items[0].Name, list.Items[1].Name)
	}

	page := decode[listBody](t, do(t, h, http.MethodGet, "/items?limit=1&offset=1", ""))
	if page.Total != 2 || len(page.Items) != 1 || page.Items[0].ID != first.ID {
		t.Errorf("unexpected second page %+v", page)
	}
}

func TestListItemsEmpty(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	rec := do(t, h, http.MethodGet, "/items?offset=50", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Errorf("expected an empty items array, got %s", rec.Body.String())
	}
}

func TestGetItem(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	tests := []struct {
		name     string
		path     string
		wantCode int
	}{
		{"malformed id", "/items/not-a-uuid", http.StatusBadRequest},
		{"unknown id", "/items/" + uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}

	rec := do(t, h, http.MethodGet, "/items/"+uuid.NewString(), "")
	if body := decode[rest.ErrorResponse](t, rec); body.Detail != "Item not found" {
		t.Errorf("unexpected detail %q", body.Detail)
	}
}

func TestUpdateItem(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)
	created := createItem(t, h, `{"name":"Original","description":"keep me"}`)
	path := "/items/" + created.ID.String()

	rec := do(t, h, http.MethodPut, path, `{"name":"Renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated := decode[item.Item](t, rec)
	if updated.Name != "Renamed" {
		t.Errorf("expected name Renamed, got %q", updated.Name)
	}
	if updated.Description == nil || *updated.Description != "keep me" {
		t.Errorf("absent description must be preserved, got %v", updated.Description)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed from %v to %v", created.CreatedAt, updated.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updated_at was not refreshed")
	}

	cleared := decode[item.Item](t, do(t, h, http.MethodPut, path, `{"description":null}`))
	if cleared.Description != nil || cleared.Name != "Renamed" {
		t.Errorf("expected description cleared and name kept, got %+v", cleared)
	}
}

func TestUpdateItemErrors(t *testing.T) {
	repo := apptest.NewMemoryItemRepository()
	h := newTestHandler(t, repo, true)
	created := createItem(t, h, `{"name":"Original"}`)
	path := "/items/" + created.ID.String()

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{"unknown id", "/items/" + uuid.NewString(), `{"name":"x"}`, http.StatusNotFound},
		{"malformed id", "/items/123", `{"name":"x"}`, http.StatusBadRequest},
		{"null name", path, `{"name":null}`, http.StatusBadRequest},
		{"empty name", path, `{"name":""}`, http.StatusBadRequest},
		{"name too long", path, `{"name":"` + strings.Repeat("a", item.MaxNameLength+1) + `"}`, http.StatusBadRequest},
		{"description wrong type", path, `{"description":42}`, http.StatusBadRequest},
		{"missing body", path, ``, http.StatusBadRequest},
		{"null body", path, `null`, http.StatusBadRequest},
		{"string body", path, `"Renamed"`, http.StatusBadRequest},
		{"array body", path, `[{"name":"Renamed"}]`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, tt.path, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}

	got := decode[item.Item](t, do(t, h, http.MethodGet, path, ""))
	if got.Name != "Original" || !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("rejected updates modified the item: %+v", got)
	}
}

func TestDeleteItem(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)
	created := createItem(t, h, `{"name":"doomed"}`)
	path := "/items/" + created.ID.String()

	rec := do(t, h, http.MethodDelete, path, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}

	if rec := do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestStoreFaultIsServerError(t *testing.T) {
	repo := apptest.NewMemoryItemRepository()
	repo.Err = errors.New("pq: duplicate key value violates unique constraint")
	h := newTestHandler(t, repo, true)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/items", ""},
		{http.MethodPost, "/items", `{"name":"x"}`},
		{http.MethodGet, "/items/" + uuid.NewString(), ""},
		{http.MethodPut, "/items/" + uuid.NewString(), `{"name":"x"}`},
		{http.MethodDelete, "/items/" + uuid.NewString(), ""},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			if body := decode[rest.ErrorResponse](t, rec); strings.Contains(body.Detail, "pq:") {
				t.Errorf("store error leaked to the client: %q", body.Detail)
			}
		})
	}
}

func TestValidationPrecedesStoreAccess(t *testing.T) {
	repo := apptest.NewMemoryItemRepository()
	repo.Err = errors.New("store must not be reached")
	h := newTestHandler(t, repo, true)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/items?limit=0", ""},
		{http.MethodPost, "/items", `{"name":""}`},
		{http.MethodPut, "/items/" + uuid.NewString(), `{"name":null}`},
		{http.MethodDelete, "/items/nope", ""},
	} {
		if rec := do(t, h, tc.method, tc.path, tc.body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	rec := do(t, h, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decode[rest.ErrorResponse](t, rec); body.Detail == "" {
		t.Error("expected a detail message")
	}
}

func TestItemFeedUnavailableWithoutBroker(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	if rec := do(t, h, http.MethodGet, "/ws/items", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, apptest.NewMemoryItemRepository(), true)

	req := httptest.NewRequest(http.MethodOptions, "/items", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected Access-Control-Allow-Origin %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("unexpected Access-Control-Allow-Credentials %q", got)
	}
}

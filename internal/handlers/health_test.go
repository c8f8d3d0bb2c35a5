package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"reportqa/internal/storage"
	"reportqa/internal/vectorstore/mocks"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(store *mocks.MockVectorStore)
		wantStatus int
		wantHealth string
	}{
		{
			name: "healthy",
			setup: func(store *mocks.MockVectorStore) {
				store.EXPECT().CollectionExists(gomock.Any(), "reports").Return(true, nil)
			},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name: "vector store unreachable",
			setup: func(store *mocks.MockVectorStore) {
				store.EXPECT().CollectionExists(gomock.Any(), "reports").Return(false, errors.New("connection refused"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
		{
			name: "collection missing",
			setup: func(store *mocks.MockVectorStore) {
				store.EXPECT().CollectionExists(gomock.Any(), "reports").Return(false, nil)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := mocks.NewMockVectorStore(ctrl)
			tt.setup(store)

			db, err := storage.New(":memory:")
			if err != nil {
				t.Fatalf("failed to open test database: %v", err)
			}
			t.Cleanup(func() { _ = db.Close() })

			handler := NewHealthHandler(store, db, "reports")
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("health = %q, want %q", resp.Status, tt.wantHealth)
			}
			if resp.Checks["database"] != "ok" {
				t.Errorf("database check = %q", resp.Checks["database"])
			}
		})
	}
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	handler := NewHealthHandler(mocks.NewMockVectorStore(ctrl), db, "reports")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"reportqa/internal/storage"
	"reportqa/internal/storage/mocks"
)

func TestDocumentsHandler(t *testing.T) {
	indexedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		method     string
		setup      func(docs *mocks.MockDocumentStore)
		wantStatus int
		check      func(t *testing.T, body []byte)
	}{
		{
			name:   "lists documents",
			method: http.MethodGet,
			setup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().List(gomock.Any()).Return([]storage.Document{
					{Name: "annual_report_2023.md", Year: 2023, ChunkCount: 12, IndexedAt: indexedAt},
					{Name: "esg_report_2023.md", Year: 2023, ChunkCount: 7, IndexedAt: indexedAt},
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp DocumentsResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if len(resp.Documents) != 2 {
					t.Fatalf("expected 2 documents, got %d", len(resp.Documents))
				}
				if resp.Documents[0].Name != "annual_report_2023.md" || resp.Documents[0].ChunkCount != 12 {
					t.Errorf("document = %+v", resp.Documents[0])
				}
				if resp.Documents[0].IndexedAt != "2026-08-01T12:00:00Z" {
					t.Errorf("indexed_at = %q", resp.Documents[0].IndexedAt)
				}
			},
		},
		{
			name:   "empty catalog",
			method: http.MethodGet,
			setup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().List(gomock.Any()).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp DocumentsResponse
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if len(resp.Documents) != 0 {
					t.Errorf("expected no documents, got %v", resp.Documents)
				}
			},
		},
		{
			name:   "store failure maps to 500",
			method: http.MethodGet,
			setup: func(docs *mocks.MockDocumentStore) {
				docs.EXPECT().List(gomock.Any()).Return(nil, errors.New("db locked"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			setup:      func(docs *mocks.MockDocumentStore) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			docs := mocks.NewMockDocumentStore(ctrl)
			tt.setup(docs)

			handler := NewDocumentsHandler(docs)
			req := httptest.NewRequest(tt.method, "/api/v1/documents", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}
}

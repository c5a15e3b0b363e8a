package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchFiltersEmptySlots(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/guidelines/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Limit int `json:"limit"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Limit != 3 {
			t.Errorf("expected limit 3, got %d", req.Limit)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{"payload": map[string]any{"source": "a.pdf", "text": "alpha"}},
				{"payload": map[string]any{"source": "gone.pdf", "text": ""}},
				{"payload": map[string]any{"text": "beta"}},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "guidelines")
	entries, err := client.Search(context.Background(), []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected empty slots filtered, got %d entries", len(entries))
	}
	if entries[0].Source != "a.pdf" || entries[0].Content != "alpha" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Source != "Unknown" {
		t.Fatalf("missing source must map to Unknown, got %q", entries[1].Source)
	}
}

func TestSearchErrorsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(server.URL, "guidelines")
	if _, err := client.Search(context.Background(), []float32{0.1}, 3); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCountReadsCollectionInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/guidelines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"points_count": 42},
		})
	}))
	defer server.Close()

	client := New(server.URL, "guidelines")
	count, err := client.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}
}

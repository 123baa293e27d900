package reranker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRerankParsesRelevanceScores(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "question", req.Query)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rerankResponse{Results: []struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		}{
			{Index: 1, RelevanceScore: 0.9},
			{Index: 0, RelevanceScore: 0.4},
		}})
	}))
	defer server.Close()

	j := New(Config{BaseURL: server.URL, APIKey: "test-key", ModelName: "rerank-v1"})

	results, err := j.Rerank(context.Background(), "question", []string{"doc a", "doc b"}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Index)
	assert.Equal(t, 0.9, results[0].Score)
}

func TestRerankReturnsErrorOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	j := New(Config{BaseURL: server.URL, APIKey: "test-key", ModelName: "rerank-v1"})

	_, err := j.Rerank(context.Background(), "question", []string{"doc a"}, 1)

	assert.Error(t, err)
}

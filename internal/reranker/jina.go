// Package reranker implements interfaces.Reranker over a Jina-style
// rerank HTTP endpoint, the cross-encoder transport the teacher's own
// reranker adapters use.
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chatrag/ragcore/internal/apperr"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Config configures the reranker endpoint.
type Config struct {
	BaseURL   string
	APIKey    string
	ModelName string
}

// Jina calls a Jina-compatible /rerank endpoint.
type Jina struct {
	modelName string
	apiKey    string
	baseURL   string
	client    *http.Client
}

// New builds a Jina reranker.
func New(cfg Config) *Jina {
	baseURL := "https://api.jina.ai/v1"
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	return &Jina{modelName: cfg.ModelName, apiKey: cfg.APIKey, baseURL: baseURL, client: &http.Client{}}
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n,omitempty"`
	ReturnDocuments bool     `json:"return_documents,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores each document against query, returning the top topN.
func (j *Jina) Rerank(ctx context.Context, query string, docs []string, topN int) ([]interfaces.RerankResult, error) {
	body, err := json.Marshal(rerankRequest{
		Model: j.modelName, Query: query, Documents: docs, TopN: topN,
	})
	if err != nil {
		return nil, apperr.New(apperr.KindMalformedLlmResponse, "reranker.rerank", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.New(apperr.KindUnknown, "reranker.rerank", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+j.apiKey)

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, apperr.New(apperr.KindTransientRemote, "reranker.rerank", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindTransientRemote, "reranker.rerank", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindTransientRemote, "reranker.rerank",
			fmt.Errorf("rerank endpoint returned status %s: %s", resp.Status, respBody))
	}

	var decoded rerankResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, apperr.New(apperr.KindMalformedLlmResponse, "reranker.rerank", err)
	}

	results := make([]interfaces.RerankResult, len(decoded.Results))
	for i, r := range decoded.Results {
		results[i] = interfaces.RerankResult{Index: r.Index, Score: r.RelevanceScore}
	}
	return results, nil
}

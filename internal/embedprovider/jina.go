package embedprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chatrag/ragcore/internal/logger"
	"github.com/chatrag/ragcore/internal/types/interfaces"
)

// Jina talks to the Jina AI embeddings API, which is mostly
// OpenAI-compatible but uses a boolean "truncate" field instead of
// truncate_prompt_tokens, and exposes "late chunking" as a named input
// flag rather than a per-request capability the client must detect.
type Jina struct {
	apiKey     string
	baseURL    string
	modelName  string
	dimensions int
	httpClient *http.Client
	maxRetries int
}

func newJina(cfg Config) (*Jina, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.jina.ai/v1"
	}
	return &Jina{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		modelName:  cfg.ModelName,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
	}, nil
}

type jinaEmbedRequest struct {
	Model        string   `json:"model"`
	Input        []string `json:"input"`
	Truncate     bool     `json:"truncate,omitempty"`
	Dimensions   int      `json:"dimensions,omitempty"`
	LateChunking bool     `json:"late_chunking,omitempty"`
}

type jinaEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed converts a single string to a vector.
func (e *Jina) Embed(ctx context.Context, text string, task interfaces.EmbedTask) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text}, task, false)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("jina: no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch converts texts to vectors in one request, honoring the
// late-chunking flag when the caller asks for it.
func (e *Jina) EmbedBatch(ctx context.Context, texts []string, task interfaces.EmbedTask, lateChunking bool) ([][]float32, error) {
	reqBody := jinaEmbedRequest{
		Model:        e.modelName,
		Input:        texts,
		Truncate:     true,
		LateChunking: lateChunking,
	}
	if e.dimensions > 0 {
		reqBody.Dimensions = e.dimensions
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("jina: marshal request: %w", err)
	}

	resp, err := e.doRequestWithRetry(ctx, jsonData)
	if err != nil {
		return nil, fmt.Errorf("jina: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jina: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina: api error: status %s, body %s", resp.Status, string(body))
	}

	var response jinaEmbedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("jina: unmarshal response: %w", err)
	}

	vectors := make([][]float32, len(response.Data))
	for _, d := range response.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (e *Jina) doRequestWithRetry(ctx context.Context, jsonData []byte) (*http.Response, error) {
	url := e.baseURL + "/embeddings"
	var resp *http.Response
	var err error

	for i := 0; i <= e.maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			logger.Info(ctx, "jina retrying embed request", "attempt", i, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+e.apiKey)

		resp, err = e.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		logger.Error(ctx, "jina embed request failed", "attempt", i, "error", err)
	}
	return nil, err
}

// Dimensions reports the configured vector width.
func (e *Jina) Dimensions() int { return e.dimensions }

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

// HuggingFace talks to the HuggingFace Inference API's feature-extraction
// endpoint. No pack example carries an HF client, so this follows the
// teacher's own hand-rolled-HTTP shape for non-OpenAI-compatible
// providers (see its Jina/Aliyun embedders).
type HuggingFace struct {
	apiKey     string
	baseURL    string
	modelName  string
	dimensions int
	httpClient *http.Client
	maxRetries int
}

func newHuggingFace(cfg Config) (*HuggingFace, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction"
	}
	return &HuggingFace{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		modelName:  cfg.ModelName,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 3,
	}, nil
}

type huggingFaceRequest struct {
	Inputs  []string               `json:"inputs"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// Embed converts a single string to a vector.
func (e *HuggingFace) Embed(ctx context.Context, text string, task interfaces.EmbedTask) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text}, task, false)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("huggingface: no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch converts texts to vectors in one request. lateChunking is
// accepted for interface symmetry; the feature-extraction endpoint has
// no batch-awareness knob.
func (e *HuggingFace) EmbedBatch(ctx context.Context, texts []string, task interfaces.EmbedTask, lateChunking bool) ([][]float32, error) {
	reqBody := huggingFaceRequest{
		Inputs:  texts,
		Options: map[string]interface{}{"wait_for_model": true},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	resp, err := e.doRequestWithRetry(ctx, jsonData)
	if err != nil {
		return nil, fmt.Errorf("huggingface: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("huggingface: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface: api error: status %s, body %s", resp.Status, string(body))
	}

	var vectors [][]float32
	if err := json.Unmarshal(body, &vectors); err != nil {
		return nil, fmt.Errorf("huggingface: unmarshal response: %w", err)
	}
	return vectors, nil
}

func (e *HuggingFace) doRequestWithRetry(ctx context.Context, jsonData []byte) (*http.Response, error) {
	url := e.baseURL + "?model=" + e.modelName
	var resp *http.Response
	var err error

	for i := 0; i <= e.maxRetries; i++ {
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			logger.Info(ctx, "huggingface retrying embed request", "attempt", i, "backoff", backoff)
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
		logger.Error(ctx, "huggingface embed request failed", "attempt", i, "error", err)
	}
	return nil, err
}

// Dimensions reports the configured vector width.
func (e *HuggingFace) Dimensions() int { return e.dimensions }

package jina

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-examprep-be/pkg/embedding"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   "jina-embeddings-v2-base-en",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *JinaProvider) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	// Jina docs recommend array of inputs. We wrap single text.
	reqBody := embeddingRequest{
		Model: p.model,
		Input: []string{text},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &embedding.ProviderError{Provider: "jina", Kind: embedding.KindRequest, Err: err}
	}

	req, err := http.NewRequest("POST", p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &embedding.ProviderError{Provider: "jina", Kind: embedding.KindRequest, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &embedding.ProviderError{Provider: "jina", Kind: embedding.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		kind := embedding.KindTransport
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			kind = embedding.KindQuota
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			kind = embedding.KindRequest
		}
		return nil, &embedding.ProviderError{
			Provider:   "jina",
			Kind:       kind,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", string(bodyBytes)),
		}
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, &embedding.ProviderError{Provider: "jina", Kind: embedding.KindTransport, Err: err}
	}

	if jinaResp.Error != nil {
		return nil, &embedding.ProviderError{
			Provider: "jina",
			Kind:     embedding.KindRequest,
			Err:      fmt.Errorf("api returned error: %s", jinaResp.Error.Message),
		}
	}

	if len(jinaResp.Data) == 0 {
		return nil, &embedding.ProviderError{
			Provider: "jina",
			Kind:     embedding.KindTransport,
			Err:      fmt.Errorf("empty embeddings in response"),
		}
	}

	// Jina returns 768 dimensions for v2-base-en, same as the default
	// index dimension.
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{
			Values: jinaResp.Data[0].Embedding,
		},
	}, nil
}

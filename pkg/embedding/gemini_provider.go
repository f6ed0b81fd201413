package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Gemini embedContent wire structures.
type geminiRequestPart struct {
	Text string `json:"text"`
}

type geminiRequestContent struct {
	Parts []geminiRequestPart `json:"parts"`
}

type geminiRequest struct {
	Model    string               `json:"model"`
	Content  geminiRequestContent `json:"content"`
	TaskType string               `json:"task_type,omitempty"`
}

type GeminiProvider struct {
	ApiKey string
	client *http.Client
}

func NewGeminiProvider(apiKey string) EmbeddingProvider {
	return &GeminiProvider{
		ApiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *GeminiProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	modelName := "text-embedding-004"

	geminiReq := geminiRequest{
		Model: modelName,
		Content: geminiRequestContent{
			Parts: []geminiRequestPart{
				{
					Text: text,
				},
			},
		},
		TaskType: taskType,
	}
	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Kind: KindRequest, Err: err}
	}

	endpoint := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1/models/%s:embedContent",
		modelName,
	)

	req, err := http.NewRequest(
		"POST",
		endpoint,
		bytes.NewBuffer(geminiReqJson),
	)
	if err != nil {
		return nil, &ProviderError{Provider: "gemini", Kind: KindRequest, Err: err}
	}

	req.Header.Set("x-goog-api-key", p.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, transportError("gemini", err)
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, transportError("gemini", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, classifyStatus("gemini", res.StatusCode, string(resByte))
	}

	var resEmbedding EmbeddingResponse
	err = json.Unmarshal(resByte, &resEmbedding)
	if err != nil {
		return nil, transportError("gemini", err)
	}

	return &resEmbedding, nil
}

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOpenAIModel = "text-embedding-3-small"
	defaultDimensions  = 1536
	openAIEmbedURL     = "https://api.openai.com/v1/embeddings"
)

// Compile-time interface check.
var _ Embedder = (*OpenAI)(nil)

// OpenAI implements Embedder using the OpenAI embeddings API. Requests are
// made once per batch; a failed call is surfaced to the caller, never
// retried.
type OpenAI struct {
	apiKey     string
	model      string
	dimensions int
	normalize  bool
	client     *http.Client
	baseURL    string // configurable for testing; defaults to openAIEmbedURL
}

// OpenAIOption configures an OpenAI embedder.
type OpenAIOption func(*OpenAI)

// WithBaseURL overrides the embeddings endpoint (used against
// OpenAI-compatible servers and in tests).
func WithBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) { o.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) { o.client = c }
}

// WithoutNormalization disables L2 normalization of returned vectors.
func WithoutNormalization() OpenAIOption {
	return func(o *OpenAI) { o.normalize = false }
}

// NewOpenAI creates an OpenAI embedding provider. model can be empty
// (defaults to "text-embedding-3-small") and dims can be 0 (defaults to
// 1536).
func NewOpenAI(apiKey, model string, dims int, opts ...OpenAIOption) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	if dims <= 0 {
		dims = defaultDimensions
	}
	o := &OpenAI{
		apiKey:     apiKey,
		model:      model,
		dimensions: dims,
		normalize:  true,
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    openAIEmbedURL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name returns the embedder name.
func (o *OpenAI) Name() string { return "openai:" + o.model }

// Dimensions returns the vector dimensionality.
func (o *OpenAI) Dimensions() int { return o.dimensions }

// Embed sends texts to the embeddings API and returns vectors in input order.
func (o *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(openAIEmbedRequest{
		Model:      o.model,
		Input:      texts,
		Dimensions: o.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai embed: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embed: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai embed: read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embed: API error %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp openAIEmbedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("openai embed: unmarshal response: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embed: embedding index %d out of range", d.Index)
		}
		if o.normalize {
			Normalize(d.Embedding)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

// OpenAI API types

type openAIEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openAIEmbedResponse struct {
	Data []openAIEmbedData `json:"data"`
}

type openAIEmbedData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

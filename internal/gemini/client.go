// Package gemini provides a client for the Gemini generateContent and
// embedContent REST endpoints.
//
// The client speaks the v1beta wire format directly: generation requests carry
// contents, embedding requests carry a model, content parts and a task type.
// Failures surface as *RemoteError with the upstream status and response body
// preserved for server-side logging.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btvvardhan/chatbot-backend/internal/log"
)

// DefaultBaseURL is the production Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Embedding task types. Document and query embeddings are optimized
// differently by the model.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// NoReply is returned when the generation response carries no text.
const NoReply = "No reply."

// defaultTimeout bounds every remote call. Without it a hung upstream would
// block the request indefinitely.
const defaultTimeout = 60 * time.Second

// RemoteError describes a non-success response from the Gemini API.
// Body is intended for server-side logs only and must not be returned to
// API callers.
type RemoteError struct {
	Service    string // "generate" or "embed"
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("gemini %s returned status %d", e.Service, e.StatusCode)
}

// Config contains parameters for creating a Client.
type Config struct {
	APIKey     string
	Model      string // generation model, e.g. "gemini-2.5-flash"
	EmbedModel string // embedding model, e.g. "text-embedding-004"

	// BaseURL overrides the API endpoint. Tests point this at an httptest
	// server. Empty means DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the HTTP client. Nil means a client with the
	// default per-call timeout.
	HTTPClient *http.Client

	Logger log.Logger
}

// Client calls the Gemini generation and embedding endpoints.
// It is safe for concurrent use.
type Client struct {
	apiKey     string
	model      string
	embedModel string
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a Gemini client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model is required")
	}
	if cfg.EmbedModel == "" {
		return nil, errors.New("gemini: embed model is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		embedModel: cfg.EmbedModel,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Wire types for the v1beta REST API.

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type embedRequest struct {
	Model    string  `json:"model"`
	Content  content `json:"content"`
	TaskType string  `json:"taskType"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// GenerateContent sends the prompt to the generation endpoint and returns the
// concatenated text of the first candidate. The prompt is the complete model
// input, system instructions included.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}

	var resp generateResponse
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	if err := c.postJSON(ctx, "generate", url, reqBody, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return NoReply, nil
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return NoReply, nil
	}
	return sb.String(), nil
}

// Embed returns the embedding vector for the given text. taskType should be
// TaskRetrievalDocument for corpus chunks and TaskRetrievalQuery for user
// queries. An empty or missing vector in the response is an error.
func (c *Client) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	reqBody := embedRequest{
		Model:    "models/" + c.embedModel,
		Content:  content{Parts: []part{{Text: text}}},
		TaskType: taskType,
	}

	var resp embedResponse
	url := fmt.Sprintf("%s/v1beta/models/%s:embedContent", c.baseURL, c.embedModel)
	if err := c.postJSON(ctx, "embed", url, reqBody, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embedding.Values) == 0 {
		return nil, &RemoteError{Service: "embed", StatusCode: http.StatusOK, Body: "empty embedding vector"}
	}
	return resp.Embedding.Values, nil
}

// postJSON issues a JSON POST and decodes the response into out.
// Non-2xx responses become a *RemoteError carrying the body.
func (c *Client) postJSON(ctx context.Context, service, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", service, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", service, err)
	}
	req.Header.Set("Content-Type", "application/json")
	// The key travels in a header rather than the query string so it never
	// shows up in access logs.
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling gemini %s: %w", service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		c.logger.Error("gemini call failed",
			"service", service,
			"status", resp.StatusCode,
			"body", string(body))
		return &RemoteError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", service, err)
	}
	return nil
}

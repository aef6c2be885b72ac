// Package api provides the client for the Gemini generation API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/msgcoach/internal/errors"
)

// Generator is the single external operation the rewrite pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, modelID, prompt string) (string, error)
}

// contentGenerator is the subset of *genai.Models used by the client
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient calls the Gemini API with an API key
type GeminiClient struct {
	apiKey      string
	httpClient  *http.Client
	temperature *float32
	logger      *zap.Logger

	mu     sync.Mutex
	models contentGenerator
}

// ClientOption is a function that configures the client
type ClientOption func(*GeminiClient)

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *GeminiClient) {
		c.httpClient = hc
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) ClientOption {
	return func(c *GeminiClient) {
		temp := t
		c.temperature = &temp
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *GeminiClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// withModels injects the generation backend (tests only)
func withModels(m contentGenerator) ClientOption {
	return func(c *GeminiClient) {
		c.models = m
	}
}

// NewClient creates a GeminiClient. An empty key is accepted here;
// every Generate call then fails at the authentication step.
func NewClient(apiKey string, opts ...ClientOption) *GeminiClient {
	c := &GeminiClient{
		apiKey: apiKey,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// init lazily builds the genai client on first use
func (c *GeminiClient) init(ctx context.Context) (contentGenerator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models != nil {
		return c.models, nil
	}
	if c.apiKey == "" {
		return nil, &apierrors.AuthError{Message: apierrors.ErrNoAPIKey.Error(), Err: apierrors.ErrNoAPIKey}
	}

	cfg := &genai.ClientConfig{
		APIKey:     c.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &apierrors.AuthError{Message: fmt.Sprintf("failed to create Gemini client: %v", err), Err: err}
	}

	c.models = client.Models
	return c.models, nil
}

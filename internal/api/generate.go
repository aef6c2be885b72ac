package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apierrors "github.com/diogo/msgcoach/internal/errors"
)

// Generate sends prompt to modelID and returns the raw text of the response.
// The text is not validated or parsed.
func (c *GeminiClient) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	models, err := c.init(ctx)
	if err != nil {
		return "", err
	}

	var config *genai.GenerateContentConfig
	if c.temperature != nil {
		config = &genai.GenerateContentConfig{Temperature: c.temperature}
	}

	start := time.Now()
	resp, err := models.GenerateContent(ctx, modelID, genai.Text(prompt), config)
	if err != nil {
		c.logger.Debug("generate content failed",
			zap.String("model", modelID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyError(modelID, err)
	}
	if resp == nil {
		return "", apierrors.ErrNoContent
	}

	text := resp.Text()
	if text == "" {
		return "", apierrors.ErrNoContent
	}

	c.logger.Debug("generate content ok",
		zap.String("model", modelID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)))
	return text, nil
}

// classifyError maps a genai failure onto the error taxonomy.
// Classification is informational; the retry loop treats all kinds alike.
func classifyError(modelID string, err error) error {
	apiErr, ok := asAPIError(err)
	if !ok {
		return apierrors.NewNetworkError("generate content", err)
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return &apierrors.AuthError{Message: apiErr.Message, Err: err}
	case apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "api key"):
		return &apierrors.AuthError{Message: apiErr.Message, Err: err}
	case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
		return &apierrors.UsageLimitError{Message: apiErr.Message, Err: err}
	default:
		e := apierrors.NewAPIError(apiErr.Code, modelID, apiErr.Message)
		e.Status = apiErr.Status
		return e
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

package ai

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

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrNoModel is returned when no endpoint serves the requested model
var ErrNoModel = errors.New("model not found")

// Service represents the AI service interface
type Service interface {
	GetResponse(ctx context.Context, messages []models.Message, modelID string) (string, error)
}

// ModelOption represents a model option with endpoint info
type ModelOption struct {
	ID           string
	Name         string
	EndpointName string
	MaxTokens    int
}

// Client talks to OpenAI-compatible chat completion endpoints
type Client struct {
	endpoints  map[string]*config.ModelEndpoint
	models     map[string]*ModelOption
	httpClient *http.Client
	logger     *logrus.Logger

	maxRetries     int
	backoff        time.Duration
	attemptTimeout time.Duration
	temperature    float64
}

// NewClient creates a new AI client from the configured endpoints
func NewClient(cfg *config.ModelsConfig, logger *logrus.Logger) *Client {
	endpoints := make(map[string]*config.ModelEndpoint)
	options := make(map[string]*ModelOption)

	for i := range cfg.Endpoints {
		endpoint := &cfg.Endpoints[i]
		endpoints[endpoint.Name] = endpoint

		logger.WithFields(logrus.Fields{
			"endpoint": endpoint.Name,
			"baseURL":  endpoint.BaseURL,
			"models":   len(endpoint.Models),
		}).Info("Loading endpoint")

		for j := range endpoint.Models {
			model := &endpoint.Models[j]
			options[model.ID] = &ModelOption{
				ID:           model.ID,
				Name:         model.Name,
				EndpointName: endpoint.Name,
				MaxTokens:    model.MaxTokens,
			}
		}
	}

	logger.WithField("totalModels", len(options)).Info("AI client initialized")

	return &Client{
		endpoints: endpoints,
		models:    options,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:         logger,
		maxRetries:     3,
		backoff:        time.Second,
		attemptTimeout: 20 * time.Second,
		temperature:    0.9,
	}
}

// SetRetry overrides the retry count and the base backoff
func (c *Client) SetRetry(maxRetries int, backoff time.Duration) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	c.maxRetries = maxRetries
	c.backoff = backoff
}

// Enabled reports whether any model is configured
func (c *Client) Enabled() bool {
	return len(c.models) > 0
}

// GetModelByID returns a model by its ID
func (c *Client) GetModelByID(modelID string) (*ModelOption, error) {
	model, exists := c.models[modelID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, modelID)
	}
	return model, nil
}

// clientError marks failures that retrying cannot fix
type clientError struct {
	status int
	body   string
}

func (e *clientError) Error() string {
	return fmt.Sprintf("AI request failed with client error %d: %s", e.status, e.body)
}

// GetResponse gets AI response from the appropriate endpoint with retry logic
func (c *Client) GetResponse(ctx context.Context, messages []models.Message, modelID string) (string, error) {
	model, err := c.GetModelByID(modelID)
	if err != nil {
		return "", err
	}
	endpoint, exists := c.endpoints[model.EndpointName]
	if !exists {
		return "", fmt.Errorf("endpoint not found: %s", model.EndpointName)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		response, err := c.doRequest(ctx, endpoint, model, messages)
		if err == nil {
			return response, nil
		}
		lastErr = err

		var ce *clientError
		if errors.As(err, &ce) {
			return "", err
		}

		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
			"modelID": modelID,
		}).Warn("AI request failed, retrying...")

		if attempt < c.maxRetries {
			// Exponential backoff: 1x, 2x, 4x
			wait := c.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return "", fmt.Errorf("all retry attempts failed: %w", lastErr)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, endpoint *config.ModelEndpoint, model *ModelOption, messages []models.Message) (string, error) {
	reqBody := chatRequest{
		Model:       model.ID,
		Messages:    make([]chatMessage, len(messages)),
		MaxTokens:   model.MaxTokens,
		Temperature: c.temperature,
	}
	for i, msg := range messages {
		reqBody.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(endpoint.BaseURL, "/"))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if endpoint.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+endpoint.APIKey)
	}

	c.logger.WithFields(logrus.Fields{
		"model":    model.ID,
		"endpoint": endpoint.Name,
	}).Debug("Sending AI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Don't retry for client errors (4xx) except rate limiting
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", &clientError{status: resp.StatusCode, body: string(body)}
		}
		return "", fmt.Errorf("AI request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("AI error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response from AI")
	}

	return result.Choices[0].Message.Content, nil
}

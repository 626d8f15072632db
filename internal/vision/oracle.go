package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrVisionUnavailable indicates the vision oracle could not produce a
// position. Callers degrade to a centre crop; the error is never fatal.
var ErrVisionUnavailable = fmt.Errorf("vision unavailable")

// Position is a normalized subject location with detection confidence
type Position struct {
	NX         float64 `json:"nx"`
	NY         float64 `json:"ny"`
	Confidence float64 `json:"confidence"`
}

// Centre is the degraded fallback when no subject can be located
var Centre = Position{NX: 0.5, NY: 0.5, Confidence: 0}

// Oracle locates the main speaking subject in a single JPEG frame
type Oracle interface {
	Locate(ctx context.Context, jpeg []byte) (Position, error)
}

const locatePrompt = `Analyze this video frame and identify the main speaking subject (person).

Return ONLY a JSON object with these fields:
- "subject_detected": true/false - whether a person is visible
- "center_x": 0-1 float - horizontal center of the person (0=left edge, 1=right edge)
- "center_y": 0-1 float - vertical center of the person (0=top edge, 1=bottom edge)
- "confidence": 0-1 float - how confident you are in this detection

Output ONLY the JSON, no other text.`

// OpenRouterOracle calls a hosted multimodal model through the OpenRouter
// chat-completions API
type OpenRouterOracle struct {
	url     string
	model   string
	apiKey  string
	client  *http.Client
	retries int
	logger  *zap.Logger
}

// NewOpenRouterOracle creates a new OpenRouterOracle instance
func NewOpenRouterOracle(url, model, apiKey string, timeout time.Duration) *OpenRouterOracle {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenRouterOracle{
		url:     url,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		retries: 2,
		logger:  zap.NewNop(),
	}
}

// NewOpenRouterOracleWithLogger creates a new OpenRouterOracle instance with custom logger
func NewOpenRouterOracleWithLogger(url, model, apiKey string, timeout time.Duration, logger *zap.Logger) *OpenRouterOracle {
	o := NewOpenRouterOracle(url, model, apiKey, timeout)
	if logger != nil {
		o.logger = logger
	}
	return o
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatContent struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type detection struct {
	SubjectDetected bool    `json:"subject_detected"`
	CenterX         float64 `json:"center_x"`
	CenterY         float64 `json:"center_y"`
	Confidence      float64 `json:"confidence"`
}

// Locate sends the frame to the model and parses its position answer,
// retrying transient failures with backoff
func (o *OpenRouterOracle) Locate(ctx context.Context, jpeg []byte) (Position, error) {
	var lastErr error
	backoff := []time.Duration{100 * time.Millisecond, 400 * time.Millisecond}
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff[attempt-1]):
			case <-ctx.Done():
				return Position{}, fmt.Errorf("%w: %v", ErrVisionUnavailable, ctx.Err())
			}
		}
		pos, err := o.locateOnce(ctx, jpeg)
		if err == nil {
			return pos, nil
		}
		lastErr = err
		o.logger.Warn("vision oracle attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return Position{}, fmt.Errorf("%w: %v", ErrVisionUnavailable, lastErr)
}

func (o *OpenRouterOracle) locateOnce(ctx context.Context, jpeg []byte) (Position, error) {
	payload := chatRequest{
		Model: o.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "image_url", ImageURL: &chatImageURL{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
				}},
				{Type: "text", Text: locatePrompt},
			},
		}},
		MaxTokens:   500,
		Temperature: 0.1,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Position{}, fmt.Errorf("failed to encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return Position{}, fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Position{}, fmt.Errorf("failed to read oracle response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Position{}, fmt.Errorf("failed to parse oracle response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Position{}, fmt.Errorf("oracle response has no choices")
	}

	return ParseDetection(parsed.Choices[0].Message.Content)
}

// ParseDetection extracts a Position from a model answer. Models wrap JSON in
// markdown fences or prose often enough that parsing has to dig for the
// object.
func ParseDetection(content string) (Position, error) {
	content = strings.TrimSpace(content)
	if i := strings.Index(content, "{"); i >= 0 {
		if j := strings.LastIndex(content, "}"); j > i {
			content = content[i : j+1]
		}
	}

	var det detection
	if err := json.Unmarshal([]byte(content), &det); err != nil {
		return Position{}, fmt.Errorf("failed to parse detection %q: %w", content, err)
	}
	if !det.SubjectDetected {
		return Centre, nil
	}

	return Position{
		NX:         clamp01(det.CenterX),
		NY:         clamp01(det.CenterY),
		Confidence: clamp01(det.Confidence),
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

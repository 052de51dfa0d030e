// Package moderation calls the external text-classification service that
// gates post publication.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// Classification selects which model the service runs.
type Classification string

const (
	HateSpeech Classification = "hate_speech"
	FakeNews   Classification = "fake_news"
)

// Result of running a draft through the moderation gate.
type Result struct {
	// Verified means the gate ran and did not block publication.
	Verified bool
	// Fake is the fake-news annotation; it never blocks publication.
	Fake bool
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type classifyResponse struct {
	PredictedClass bool   `json:"predicted_class"`
	Error          string `json:"error"`
}

// Classify submits text to the service and returns the predicted class.
func (c *Client) Classify(ctx context.Context, text string, kind Classification) (bool, error) {
	payload, err := json.Marshal(classifyRequest{Text: text, Type: string(kind)})
	if err != nil {
		return false, fmt.Errorf("failed to encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("classify %s: %w", kind, err)
	}
	defer resp.Body.Close()

	var body classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("classify %s: failed to decode response: %w", kind, err)
	}

	if resp.StatusCode != http.StatusOK {
		if body.Error != "" {
			return false, fmt.Errorf("classify %s: %s", kind, body.Error)
		}
		return false, fmt.Errorf("classify %s: unexpected status %d", kind, resp.StatusCode)
	}

	return body.PredictedClass, nil
}

// VerifyDraft runs the two-step gate over a draft's combined title and
// content.
//
// Step 1 (hate speech) is a publish blocker: a positive classification
// returns Verified=false with a nil error, and a transport failure returns
// the error so the caller can surface it — either way nothing may be
// persisted.
//
// Step 2 (fake news) is an annotation only: a transport failure leaves
// Fake at its default false and the draft still counts as verified.
func (c *Client) VerifyDraft(ctx context.Context, title, content string) (Result, error) {
	text := title + ". " + content

	hate, err := c.Classify(ctx, text, HateSpeech)
	if err != nil {
		return Result{}, err
	}
	if hate {
		return Result{}, nil
	}

	fake, err := c.Classify(ctx, text, FakeNews)
	if err != nil {
		log.Printf("fake-news classification failed, defaulting to not fake: %v", err)
		fake = false
	}

	return Result{Verified: true, Fake: fake}, nil
}

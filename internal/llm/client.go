// Package llm answers natural-language questions about the registry by
// delegating to an OpenAI-compatible chat completions endpoint.
package llm

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

	"github.com/leca/loqed-births/internal/model"
)

// Answerer answers a question given the person list before and after the
// most recent change.
type Answerer interface {
	Answer(ctx context.Context, question string, before, after []model.Person) (string, error)
}

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("llm: no API key configured")

const systemPrompt = `You answer questions about a registry of people and their birth dates.
You receive two JSON datasets: "before" is the registry right before the most recent change, "after" is the registry now.
Answer in the language of the question, concisely, using only the data provided.`

// Client is an Answerer backed by a chat completions API.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewClient creates a Client. baseURL is the API root, e.g.
// "https://api.openai.com/v1".
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// datasetEntry is the subset of a person the model gets to see.
type datasetEntry struct {
	Name      string `json:"nome"`
	BirthDate string `json:"data_nascimento"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func dataset(persons []model.Person) []datasetEntry {
	out := make([]datasetEntry, 0, len(persons))
	for _, p := range persons {
		out = append(out, datasetEntry{
			Name:      p.Name,
			BirthDate: p.BirthDate,
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// Answer sends the question and both datasets to the model.
func (c *Client) Answer(ctx context.Context, question string, before, after []model.Person) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	data, err := json.Marshal(map[string]interface{}{
		"before": dataset(before),
		"after":  dataset(after),
	})
	if err != nil {
		return "", fmt.Errorf("marshal datasets: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Datasets:\n" + string(data) + "\n\nQuestion: " + question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling model: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading model response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decoding model response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("model returned status %d: %s", resp.StatusCode, msg)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

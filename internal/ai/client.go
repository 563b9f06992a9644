package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/example/lexigo/pkg/models"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// Client represents a client for the OpenAI chat completions API used to
// build dictionary entries for unknown words
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

// New creates a new lookup client from the environment
func New() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	apiURL := os.Getenv("OPENAI_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Message represents a message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat constrains the completion to a JSON object
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatRequest represents a request to the chat completions API
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse represents a response from the chat completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// entryPayload mirrors the JSON the model is asked to produce. Numeric and
// list-valued fields arrive in inconsistent shapes, so they get raw types.
type entryPayload struct {
	Word           string          `json:"word"`
	Level          string          `json:"level"`
	ImportanceRate json.RawMessage `json:"importance_rate"`
	Definition     string          `json:"definition"`
	Example        string          `json:"example"`
	Pronunciation  string          `json:"pronunciation"`
	Synonyms       json.RawMessage `json:"synonyms"`
}

const lookupPrompt = `Role: You are a friendly dictionary designed for B1-C2 learners.

Rules for generating output:
1. Provide ONE clear meaning of the word only.
2. Use simple English words (avoid jargon).
3. Keep the definition short (15 words or fewer).
4. Provide ONE short example sentence showing real-world context.
5. Provide pronunciation in IPA format.
6. Suggest 1-2 synonyms in simple English.
7. Assign a CEFR level (B1, B2, C1, or C2) based on difficulty.
8. Rate the word's importance from 0 to 10 (10 = essential/very common).
9. Return JSON only with no extra text.

Example output structure:
{
    "word": "abandon",
    "level": "B1",
    "importance_rate": 8,
    "definition": "to leave something or someone permanently",
    "example": "He abandoned the project after losing interest.",
    "pronunciation": "/əˈbændən/",
    "synonyms": ["leave", "give up"]
}

Your task:
Given the word: "%s", generate the JSON output following the rules above.`

// Lookup asks the model for a dictionary entry for the given word
func (c *Client) Lookup(ctx context.Context, word string) (*models.DictionaryEntry, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: fmt.Sprintf(lookupPrompt, word)},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	entry, err := parseEntry(response.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if entry.Word == "" {
		entry.Word = models.NormalizeWord(word)
	}
	return entry, nil
}

// parseEntry converts the model's JSON answer into a dictionary entry
func parseEntry(content string) (*models.DictionaryEntry, error) {
	var payload entryPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %v", err)
	}

	if payload.Definition == "" {
		return nil, fmt.Errorf("model output has no definition")
	}

	return &models.DictionaryEntry{
		Word:           models.NormalizeWord(payload.Word),
		Definition:     payload.Definition,
		Example:        payload.Example,
		Pronunciation:  payload.Pronunciation,
		Level:          payload.Level,
		ImportanceRate: rawToString(payload.ImportanceRate),
		Synonyms:       rawToJoined(payload.Synonyms),
	}, nil
}

// rawToString renders a raw JSON scalar (string or number) as plain text
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// rawToJoined accepts either a JSON list of strings or a single string and
// returns a comma-separated value
func rawToJoined(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

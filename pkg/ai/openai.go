package ai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

// OpenAIClient wraps go-openai for chat completions and embeddings.
// Any OpenAI compatible endpoint works through the base URL.
type OpenAIClient struct {
	client         *openai.Client
	apiKey         string
	chatModel      string
	embeddingModel openai.EmbeddingModel
	dimensions     int
	temperature    float32
	maxTokens      int
}

func newOpenAI(apiKey, baseURL string) (*openai.Client, string) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(oc), apiKey
}

// NewOpenAIChatClient creates a chat client from the LLM config
func NewOpenAIChatClient(cfg *config.LLMConfig) *OpenAIClient {
	var key, base, model string
	var temperature float32 = 0.3
	maxTokens := 2048
	if cfg != nil {
		key, base, model = cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel
		temperature = cfg.Temperature
		if cfg.MaxTokens > 0 {
			maxTokens = cfg.MaxTokens
		}
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	client, apiKey := newOpenAI(key, base)
	return &OpenAIClient{
		client:      client,
		apiKey:      apiKey,
		chatModel:   model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// NewOpenAIEmbeddingClient creates an embeddings client from the embedding config
func NewOpenAIEmbeddingClient(cfg *config.EmbeddingConfig) *OpenAIClient {
	var key, base, model string
	var dims int
	if cfg != nil {
		key, base, model, dims = cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Dimension
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	client, apiKey := newOpenAI(key, base)
	return &OpenAIClient{
		client:         client,
		apiKey:         apiKey,
		embeddingModel: openai.EmbeddingModel(model),
		dimensions:     dims,
	}
}

// Name identifies the backend in logs and provider lists
func (c *OpenAIClient) Name() string { return "openai" }

// Available reports whether the client has credentials
func (c *OpenAIClient) Available() bool { return c.apiKey != "" }

// Dimension returns the requested embedding width (0 means model default)
func (c *OpenAIClient) Dimension() int { return c.dimensions }

// Complete runs a chat completion and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed returns one vector per input, in input order
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// The API rejects empty strings
	input := make([]string, len(texts))
	for i, t := range texts {
		if t == "" {
			t = " "
		}
		input[i] = t
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input:      input,
		Model:      c.embeddingModel,
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai returned embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

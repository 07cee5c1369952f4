package entity

// ChatMessage is one role-tagged message for the generation capability.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationResult carries the generated text and token usage untouched from
// the provider. Usage fields are nil when the provider omits them.
type GenerationResult struct {
	Text             string `json:"text"`
	PromptTokens     *int   `json:"prompt_tokens,omitempty"`
	CompletionTokens *int   `json:"completion_tokens,omitempty"`
	TotalTokens      *int   `json:"total_tokens,omitempty"`
}

// OpenAI-compatible wire types shared by the llm and embedding connectors.

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type ChatCompletionChoice struct {
	Message ChatMessage `json:"message"`
}

type TokenUsage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   TokenUsage             `json:"usage"`
}

type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type EmbeddingsItem struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

type EmbeddingsResponse struct {
	Data []EmbeddingsItem `json:"data"`
}

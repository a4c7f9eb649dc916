package llm

import "time"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// ChatOptions tune a single chat call made through the Client.
type ChatOptions struct {
	Temperature float64
	MaxTokens   int
	Model       string
}

// ChatResult is the outcome of a chat call, including which backend served it.
type ChatResult struct {
	Content        string
	Provider       string
	Model          string
	TokensUsed     int
	ProcessingTime time.Duration
	Success        bool
	Err            error
}

package assistant

import "time"

// GenerationConfig holds sampling settings shared by every provider.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	TopK            int
	MaxOutputTokens int
}

// DefaultGenerationConfig favours short factual answers over creative ones.
var DefaultGenerationConfig = GenerationConfig{
	Temperature:     0.2,
	TopP:            0.9,
	TopK:            32,
	MaxOutputTokens: 1024,
}

// Request is one generation call.
type Request struct {
	System string
	Prompt string
	Config GenerationConfig
}

type ProviderResult struct {
	Text  string
	Model string
}

// Answer is what Ask returns to the caller.
type Answer struct {
	ConversationID string    `json:"conversation_id"`
	Text           string    `json:"text"`
	Provider       string    `json:"provider"`
	Model          string    `json:"model"`
	UsedFallback   bool      `json:"used_fallback"`
	ContentVersion int64     `json:"content_version"`
	AnsweredAt     time.Time `json:"answered_at"`
}

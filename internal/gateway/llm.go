package gateway

import (
	"context"
	"fmt"

	"github.com/capitalize-ai/hotel-ops-console/internal/llm"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

var systemPrompts = map[model.Channel]string{
	model.ChannelChat: "You are an AI assistant for hotel operations staff. " +
		"Help with customer analysis, churn prediction, complaints, occupancy and revenue insights. " +
		"Answer concisely.",
	model.ChannelCallCenter: "You are a hotel call-center assistant speaking with a guest. " +
		"Help with room service, check-in and check-out, billing and complaints. " +
		"If the guest needs a person, say you will connect them to a human agent.",
}

// LLMBackend answers text channels with an LLM provider. It cannot analyze
// images; vision requests resolve through the fallback policy.
type LLMBackend struct {
	client llm.Client
}

// NewLLMBackend wraps an LLM client.
func NewLLMBackend(client llm.Client) *LLMBackend {
	return &LLMBackend{client: client}
}

// Name returns the backend name.
func (b *LLMBackend) Name() string {
	return "llm:" + b.client.Name()
}

// Message completes a single turn for the channel.
func (b *LLMBackend) Message(ctx context.Context, channel model.Channel, req MessageRequest) (*MessageResponse, error) {
	resp, err := b.client.Complete(ctx, &llm.CompletionRequest{
		System: systemPrompts[channel],
		Messages: []llm.ChatMessage{
			{Role: "user", Content: req.Message},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion failed: %w", b.client.Name(), err)
	}
	return &MessageResponse{
		Response: resp.Content,
		Context:  req.Context,
	}, nil
}

// Analyze is not supported by LLM providers.
func (b *LLMBackend) Analyze(ctx context.Context, img Image) (*AnalyzeResponse, error) {
	return nil, fmt.Errorf("%w: image analysis on %s", ErrUnsupported, b.client.Name())
}

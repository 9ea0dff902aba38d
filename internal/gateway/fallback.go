package gateway

import (
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

// Fallback messages returned when the AI backend cannot answer.
const (
	ChatFallbackMessage       = "Sorry, I encountered an error. Please try again or contact support."
	CallCenterFallbackMessage = "Sorry, I encountered an error. Let me connect you to a human agent."
)

// fallbackProcessingTime is the processing time reported by the placeholder
// vision analysis.
const fallbackProcessingTime = 1.2

// FallbackMessage returns the policy message for a text channel.
func FallbackMessage(channel model.Channel) string {
	if channel == model.ChannelCallCenter {
		return CallCenterFallbackMessage
	}
	return ChatFallbackMessage
}

// FallbackAnalysis synthesizes placeholder detections so the vision view
// always has something to render.
func FallbackAnalysis() *AnalyzeResponse {
	seconds := fallbackProcessingTime
	return &AnalyzeResponse{
		Results: []Detection{
			{
				Type:        string(model.DetectionFace),
				Confidence:  0.95,
				Description: "Human face detected",
				BoundingBox: &model.BoundingBox{X: 100, Y: 50, Width: 200, Height: 250},
			},
			{
				Type:        string(model.DetectionObject),
				Confidence:  0.87,
				Description: "Hotel lobby furniture",
				BoundingBox: &model.BoundingBox{X: 300, Y: 200, Width: 150, Height: 100},
			},
			{
				Type:        string(model.DetectionText),
				Confidence:  0.92,
				Description: "Welcome to Hotel Plaza",
				BoundingBox: &model.BoundingBox{X: 50, Y: 400, Width: 300, Height: 50},
			},
		},
		ProcessingTime: &seconds,
	}
}

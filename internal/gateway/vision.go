package gateway

import (
	"encoding/json"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

// Detection is a detection as sent by the backend. Both camelCase and
// snake_case bounding box keys are accepted.
type Detection struct {
	Type        string             `json:"type"`
	Confidence  float64            `json:"confidence"`
	Description string             `json:"description"`
	BoundingBox *model.BoundingBox `json:"boundingBox,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Detection) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type        string             `json:"type"`
		Confidence  float64            `json:"confidence"`
		Description string             `json:"description"`
		BoundingBox *model.BoundingBox `json:"boundingBox"`
		SnakeBox    *model.BoundingBox `json:"bounding_box"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.Type = raw.Type
	d.Confidence = raw.Confidence
	d.Description = raw.Description
	d.BoundingBox = raw.BoundingBox
	if d.BoundingBox == nil {
		d.BoundingBox = raw.SnakeBox
	}
	return nil
}

// AnalyzeResponse is the body of a vision analysis answer.
type AnalyzeResponse struct {
	Results        []Detection `json:"results"`
	ProcessingTime *float64    `json:"processingTime,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *AnalyzeResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Results        []Detection `json:"results"`
		ProcessingTime *float64    `json:"processingTime"`
		SnakeTime      *float64    `json:"processing_time"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Results = raw.Results
	r.ProcessingTime = raw.ProcessingTime
	if r.ProcessingTime == nil {
		r.ProcessingTime = raw.SnakeTime
	}
	return nil
}

// Seconds returns the reported processing time, or 0 when absent.
func (r *AnalyzeResponse) Seconds() float64 {
	if r.ProcessingTime == nil {
		return 0
	}
	return *r.ProcessingTime
}

package model

import (
	"time"
)

// DetectionType is the kind of feature a vision detection describes.
type DetectionType string

const (
	DetectionFace   DetectionType = "face"
	DetectionObject DetectionType = "object"
	DetectionText   DetectionType = "text"
	DetectionScene  DetectionType = "scene"
)

// Valid reports whether t is one of the known detection types.
func (t DetectionType) Valid() bool {
	switch t {
	case DetectionFace, DetectionObject, DetectionText, DetectionScene:
		return true
	}
	return false
}

// BoundingBox locates a detection in image pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// VisionDetection is one feature found in an analyzed image.
type VisionDetection struct {
	Type        DetectionType `json:"type"`
	Confidence  float64       `json:"confidence"`
	Description string        `json:"description"`
	BoundingBox *BoundingBox  `json:"boundingBox,omitempty"`
}

// AnalysisResult is the normalized outcome of one image submission.
type AnalysisResult struct {
	ID             string            `json:"id"`
	ImageURL       string            `json:"imageUrl"`
	ImageWidth     int               `json:"imageWidth,omitempty"`
	ImageHeight    int               `json:"imageHeight,omitempty"`
	Results        []VisionDetection `json:"results"`
	ProcessingTime float64           `json:"processingTime"`
	Timestamp      time.Time         `json:"timestamp"`
	Fallback       bool              `json:"fallback"`
}

// Clone returns a deep copy of r.
func (r AnalysisResult) Clone() AnalysisResult {
	out := r
	out.Results = make([]VisionDetection, len(r.Results))
	for i, d := range r.Results {
		if d.BoundingBox != nil {
			box := *d.BoundingBox
			d.BoundingBox = &box
		}
		out.Results[i] = d
	}
	return out
}

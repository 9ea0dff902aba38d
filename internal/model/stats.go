package model

import "math"

// AggregateStats summarizes a customer collection. It is never stored on
// its own; it is recomputed from the collection it describes.
type AggregateStats struct {
	Total           int     `json:"total"`
	HighRisk        int     `json:"highRisk"`
	AvgChurn        float64 `json:"avgChurn"`
	AvgSatisfaction float64 `json:"avgSatisfaction"`
}

// Bucket is one category count of a distribution.
type Bucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SessionStats summarizes a chat or call console.
type SessionStats struct {
	TotalSessions   int     `json:"totalSessions"`
	AIHandled       int     `json:"aiHandled"`
	AvgSatisfaction float64 `json:"avgSatisfaction"`
	TotalMessages   int     `json:"totalMessages"`
	AIResponses     int     `json:"aiResponses"`
}

// RoundTenth rounds v to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

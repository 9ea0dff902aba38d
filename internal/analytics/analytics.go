// Package analytics computes churn risk classifications and aggregate
// statistics over the customer population.
package analytics

import (
	"sort"
	"strings"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

// DistributionKey selects the category a distribution groups by.
type DistributionKey string

const (
	ByRisk    DistributionKey = "risk"
	BySegment DistributionKey = "segment"
)

// Classify maps a churn probability onto a risk level.
func Classify(churnProbability float64) model.RiskLevel {
	return model.ClassifyRisk(churnProbability)
}

// Filter returns the customers whose name or email contains search
// (case-insensitive) and whose segment matches. An empty search or the
// "all" segment does not constrain. The input slice is not modified.
func Filter(customers []model.Customer, search string, segment model.Segment) []model.Customer {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]model.Customer, 0, len(customers))
	for _, c := range customers {
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Name), needle) &&
			!strings.Contains(strings.ToLower(c.Email), needle) {
			continue
		}
		if segment != "" && segment != model.SegmentAll && c.Segment != segment {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Aggregate summarizes customers. An empty collection yields all zeros.
func Aggregate(customers []model.Customer) model.AggregateStats {
	stats := model.AggregateStats{Total: len(customers)}
	if len(customers) == 0 {
		return stats
	}

	var churn, satisfaction float64
	for _, c := range customers {
		if c.RiskLevel() == model.RiskHigh {
			stats.HighRisk++
		}
		churn += c.ChurnProbability
		satisfaction += c.SatisfactionScore
	}

	n := float64(len(customers))
	stats.AvgChurn = model.RoundTenth(churn / n * 100)
	stats.AvgSatisfaction = model.RoundTenth(satisfaction / n)
	return stats
}

// DistributionBy counts customers per category. Risk reports low, medium
// and high; segment reports the fixed segments followed by any other
// observed segment in name order. Fixed categories appear even at zero.
func DistributionBy(customers []model.Customer, key DistributionKey) []model.Bucket {
	switch key {
	case ByRisk:
		counts := make(map[model.RiskLevel]int, len(model.RiskLevels))
		for _, c := range customers {
			counts[c.RiskLevel()]++
		}
		out := make([]model.Bucket, 0, len(model.RiskLevels))
		for _, level := range model.RiskLevels {
			out = append(out, model.Bucket{Name: string(level), Count: counts[level]})
		}
		return out

	case BySegment:
		counts := make(map[model.Segment]int)
		for _, c := range customers {
			counts[c.Segment]++
		}
		out := make([]model.Bucket, 0, len(counts)+len(model.KnownSegments))
		known := make(map[model.Segment]bool, len(model.KnownSegments))
		for _, seg := range model.KnownSegments {
			known[seg] = true
			out = append(out, model.Bucket{Name: string(seg), Count: counts[seg]})
		}

		var extra []string
		for seg := range counts {
			if !known[seg] {
				extra = append(extra, string(seg))
			}
		}
		sort.Strings(extra)
		for _, name := range extra {
			out = append(out, model.Bucket{Name: name, Count: counts[model.Segment(name)]})
		}
		return out
	}
	return nil
}

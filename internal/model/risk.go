package model

// RiskLevel is the three-valued churn risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskLevels lists every level in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// Churn thresholds. Each band is closed on its lower bound.
const (
	HighRiskThreshold   = 0.7
	MediumRiskThreshold = 0.4
)

// ClassifyRisk maps a churn probability onto a risk level.
func ClassifyRisk(p float64) RiskLevel {
	switch {
	case p >= HighRiskThreshold:
		return RiskHigh
	case p >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

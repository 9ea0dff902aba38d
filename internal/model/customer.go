// Package model defines data structures for the hotel operations console.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Segment is a customer segment. The set is open; the constants below are
// the segments every distribution reports.
type Segment string

const (
	SegmentBusiness Segment = "Business"
	SegmentLeisure  Segment = "Leisure"
	SegmentVIP      Segment = "VIP"

	// SegmentAll is the filter value matching every segment.
	SegmentAll Segment = "all"
)

// KnownSegments lists the fixed segments in display order.
var KnownSegments = []Segment{SegmentBusiness, SegmentLeisure, SegmentVIP}

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// Date is a calendar day serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Customer is a hotel guest tracked by the churn dashboard.
type Customer struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone,omitempty"`
	TotalSpent        float64 `json:"totalSpent"`
	SatisfactionScore float64 `json:"satisfactionScore"`
	ChurnProbability  float64 `json:"churnProbability"`
	Segment           Segment `json:"segment"`
	LastInteraction   Date    `json:"lastInteraction"`
}

// RiskLevel is derived from the churn probability on every read.
func (c Customer) RiskLevel() RiskLevel {
	return ClassifyRisk(c.ChurnProbability)
}

// MarshalJSON adds the derived riskLevel to the encoded customer.
func (c Customer) MarshalJSON() ([]byte, error) {
	type plain Customer
	return json.Marshal(struct {
		plain
		RiskLevel RiskLevel `json:"riskLevel"`
	}{plain: plain(c), RiskLevel: c.RiskLevel()})
}

// Validation errors for customer fields.
var (
	ErrInvalidSpend        = errors.New("totalSpent must be non-negative")
	ErrInvalidSatisfaction = errors.New("satisfactionScore must be between 0 and 5")
	ErrInvalidChurn        = errors.New("churnProbability must be between 0 and 1")
	ErrMissingCustomerID   = errors.New("customer id is required")
)

// Validate checks the field ranges of c.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMissingCustomerID
	}
	if c.TotalSpent < 0 || isNaN(c.TotalSpent) {
		return ErrInvalidSpend
	}
	if c.SatisfactionScore < 0 || c.SatisfactionScore > 5 || isNaN(c.SatisfactionScore) {
		return ErrInvalidSatisfaction
	}
	if c.ChurnProbability < 0 || c.ChurnProbability > 1 || isNaN(c.ChurnProbability) {
		return ErrInvalidChurn
	}
	return nil
}

// CustomerUpdate carries the fields an interaction may change. Nil fields
// are left as they are.
type CustomerUpdate struct {
	Name              *string  `json:"name,omitempty"`
	Email             *string  `json:"email,omitempty"`
	Phone             *string  `json:"phone,omitempty"`
	TotalSpent        *float64 `json:"totalSpent,omitempty"`
	SatisfactionScore *float64 `json:"satisfactionScore,omitempty"`
	ChurnProbability  *float64 `json:"churnProbability,omitempty"`
	Segment           *Segment `json:"segment,omitempty"`
	LastInteraction   *Date    `json:"lastInteraction,omitempty"`
}

// Apply returns a copy of c with the update applied.
func (u CustomerUpdate) Apply(c Customer) Customer {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.TotalSpent != nil {
		c.TotalSpent = *u.TotalSpent
	}
	if u.SatisfactionScore != nil {
		c.SatisfactionScore = *u.SatisfactionScore
	}
	if u.ChurnProbability != nil {
		c.ChurnProbability = *u.ChurnProbability
	}
	if u.Segment != nil {
		c.Segment = *u.Segment
	}
	if u.LastInteraction != nil {
		c.LastInteraction = *u.LastInteraction
	}
	return c
}

func isNaN(f float64) bool {
	return f != f
}

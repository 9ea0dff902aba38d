package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

type fileCustomer struct {
	ID                string  `yaml:"id"`
	Name              string  `yaml:"name"`
	Email             string  `yaml:"email"`
	Phone             string  `yaml:"phone"`
	TotalSpent        float64 `yaml:"total_spent"`
	SatisfactionScore float64 `yaml:"satisfaction_score"`
	ChurnProbability  float64 `yaml:"churn_probability"`
	Segment           string  `yaml:"segment"`
	LastInteraction   string  `yaml:"last_interaction"`
}

type fileCall struct {
	ID           string  `yaml:"id"`
	Channel      string  `yaml:"channel"`
	CustomerName string  `yaml:"customer_name"`
	PhoneNumber  string  `yaml:"phone_number"`
	Status       string  `yaml:"status"`
	AIHandled    bool    `yaml:"ai_handled"`
	Satisfaction float64 `yaml:"satisfaction"`
	Transcript   string  `yaml:"transcript"`
	StartedAt    string  `yaml:"started_at"`
	Duration     string  `yaml:"duration"`
}

type seedFile struct {
	Customers []fileCustomer `yaml:"customers"`
	Calls     []fileCall     `yaml:"calls"`
}

// timeLayouts are the accepted started_at formats.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

// LoadFile reads a YAML seed file.
func LoadFile(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read seed file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a seed document and validates every customer.
func ParseYAML(data []byte) (Dataset, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Dataset{}, fmt.Errorf("decode seed file: %w", err)
	}

	var ds Dataset
	for i, fc := range doc.Customers {
		c := model.Customer{
			ID:                strings.TrimSpace(fc.ID),
			Name:              fc.Name,
			Email:             fc.Email,
			Phone:             fc.Phone,
			TotalSpent:        fc.TotalSpent,
			SatisfactionScore: fc.SatisfactionScore,
			ChurnProbability:  fc.ChurnProbability,
			Segment:           model.Segment(fc.Segment),
		}
		if fc.LastInteraction != "" {
			d, err := model.ParseDate(fc.LastInteraction)
			if err != nil {
				return Dataset{}, fmt.Errorf("customer %d: %w", i, err)
			}
			c.LastInteraction = d
		}
		if err := c.Validate(); err != nil {
			return Dataset{}, fmt.Errorf("customer %d: %w", i, err)
		}
		ds.Customers = append(ds.Customers, c)
	}

	for i, fc := range doc.Calls {
		rec, err := fc.record()
		if err != nil {
			return Dataset{}, fmt.Errorf("call %d: %w", i, err)
		}
		ds.Calls = append(ds.Calls, rec)
	}
	sortCalls(ds.Calls)

	return ds, nil
}

func (fc fileCall) record() (model.CallRecord, error) {
	rec := model.CallRecord{
		ID:           fc.ID,
		Channel:      model.Channel(fc.Channel),
		CustomerName: fc.CustomerName,
		PhoneNumber:  fc.PhoneNumber,
		Status:       model.CallStatus(fc.Status),
		AIHandled:    fc.AIHandled,
		Satisfaction: fc.Satisfaction,
		Transcript:   fc.Transcript,
		Duration:     fc.Duration,
	}
	if rec.Channel == "" {
		rec.Channel = model.ChannelCallCenter
	}
	if rec.Status == "" {
		rec.Status = model.CallCompleted
	}
	switch rec.Status {
	case model.CallQueued, model.CallInProgress, model.CallCompleted:
	default:
		return model.CallRecord{}, fmt.Errorf("unknown status %q", fc.Status)
	}
	if rec.Satisfaction < 0 || rec.Satisfaction > 5 {
		return model.CallRecord{}, fmt.Errorf("satisfaction %v out of range", rec.Satisfaction)
	}

	if fc.StartedAt != "" {
		t, err := parseTime(fc.StartedAt)
		if err != nil {
			return model.CallRecord{}, err
		}
		rec.StartedAt = t
	}
	if rec.Duration == "" {
		rec.Duration = model.FormatDuration(0)
	}
	if secs, ok := parseDuration(rec.Duration); ok {
		rec.DurationSeconds = secs
	}
	return rec, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid started_at %q", s)
}

// parseDuration reads an m:ss duration.
func parseDuration(s string) (float64, bool) {
	var m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d", &m, &sec); err != nil || m < 0 || sec < 0 || sec > 59 {
		return 0, false
	}
	return float64(m*60 + sec), true
}

// Package ingest loads the customer population and seeded call history a
// workspace starts from.
package ingest

import (
	"sort"
	"time"

	"github.com/capitalize-ai/hotel-ops-console/internal/model"
)

// Dataset is the initial state of a workspace.
type Dataset struct {
	Customers []model.Customer
	Calls     []model.CallRecord
}

// Merge appends other to d. Customers already present by ID are replaced
// in place so later sources win.
func (d Dataset) Merge(other Dataset) Dataset {
	out := Dataset{
		Customers: append([]model.Customer(nil), d.Customers...),
		Calls:     append([]model.CallRecord(nil), d.Calls...),
	}

	index := make(map[string]int, len(out.Customers))
	for i, c := range out.Customers {
		index[c.ID] = i
	}
	for _, c := range other.Customers {
		if i, ok := index[c.ID]; ok {
			out.Customers[i] = c
			continue
		}
		index[c.ID] = len(out.Customers)
		out.Customers = append(out.Customers, c)
	}

	out.Calls = append(out.Calls, other.Calls...)
	sortCalls(out.Calls)
	return out
}

// sortCalls orders calls most recent first.
func sortCalls(calls []model.CallRecord) {
	sort.SliceStable(calls, func(i, j int) bool {
		return calls[i].StartedAt.After(calls[j].StartedAt)
	})
}

// Demo returns the sample hotel population and call history.
func Demo() Dataset {
	day := func(s string) model.Date {
		d, _ := model.ParseDate(s)
		return d
	}
	at := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02 15:04", s)
		return t
	}

	customers := []model.Customer{
		{ID: "1", Name: "John Smith", Email: "john.smith@email.com", Phone: "+1-555-0123", ChurnProbability: 0.85, LastInteraction: day("2024-01-10"), TotalSpent: 2450, SatisfactionScore: 2.1, Segment: model.SegmentBusiness},
		{ID: "2", Name: "Maria Garcia", Email: "maria.garcia@email.com", Phone: "+1-555-0124", ChurnProbability: 0.25, LastInteraction: day("2024-01-14"), TotalSpent: 1200, SatisfactionScore: 4.5, Segment: model.SegmentLeisure},
		{ID: "3", Name: "David Chen", Email: "david.chen@email.com", Phone: "+1-555-0125", ChurnProbability: 0.65, LastInteraction: day("2024-01-08"), TotalSpent: 3200, SatisfactionScore: 3.2, Segment: model.SegmentVIP},
		{ID: "4", Name: "Sarah Johnson", Email: "sarah.johnson@email.com", Phone: "+1-555-0126", ChurnProbability: 0.15, LastInteraction: day("2024-01-15"), TotalSpent: 1800, SatisfactionScore: 4.8, Segment: model.SegmentLeisure},
		{ID: "5", Name: "Michael Brown", Email: "michael.brown@email.com", Phone: "+1-555-0127", ChurnProbability: 0.92, LastInteraction: day("2024-01-05"), TotalSpent: 1500, SatisfactionScore: 1.8, Segment: model.SegmentBusiness},
	}

	calls := []model.CallRecord{
		{
			ID:              "1",
			Channel:         model.ChannelCallCenter,
			CustomerName:    "John Smith",
			PhoneNumber:     "+1-555-0123",
			Status:          model.CallCompleted,
			AIHandled:       true,
			Satisfaction:    5,
			Transcript:      "Customer called about room service. AI provided automated response with menu options.",
			StartedAt:       at("2024-01-15 14:30"),
			Duration:        "3:45",
			DurationSeconds: 225,
		},
		{
			ID:              "2",
			Channel:         model.ChannelCallCenter,
			CustomerName:    "Maria Garcia",
			PhoneNumber:     "+1-555-0124",
			Status:          model.CallCompleted,
			AIHandled:       false,
			Satisfaction:    4,
			Transcript:      "Customer needed help with check-in. Escalated to human agent.",
			StartedAt:       at("2024-01-15 13:45"),
			Duration:        "2:15",
			DurationSeconds: 135,
		},
		{
			ID:           "3",
			Channel:      model.ChannelCallCenter,
			CustomerName: "David Chen",
			PhoneNumber:  "+1-555-0125",
			Status:       model.CallQueued,
			AIHandled:    true,
			Transcript:   "Customer calling about billing inquiry...",
			StartedAt:    at("2024-01-15 15:20"),
			Duration:     "0:00",
		},
	}
	sortCalls(calls)

	return Dataset{Customers: customers, Calls: calls}
}

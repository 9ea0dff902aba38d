// Package workspace holds the per-operator state: chat and call consoles,
// the vision analyzer and the customer store.
package workspace

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/analytics"
	"github.com/capitalize-ai/hotel-ops-console/internal/events"
	"github.com/capitalize-ai/hotel-ops-console/internal/gateway"
	"github.com/capitalize-ai/hotel-ops-console/internal/ingest"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/internal/session"
	"github.com/capitalize-ai/hotel-ops-console/internal/vision"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
)

// DefaultOperator owns requests that carry no operator identity.
const DefaultOperator = "default"

// ChatGreeting is shown above an empty chat transcript.
const ChatGreeting = "Hello! I'm your AI assistant for hotel operations. I can help you with customer analysis, churn prediction, and operational insights. What would you like to know?"

// Gateway is the AI client a workspace drives.
type Gateway interface {
	session.Sender
	vision.Gateway
}

// Workspace is one operator's self-contained state.
type Workspace struct {
	OperatorID string
	Chat       *session.Console
	Calls      *session.Console
	Vision     *vision.Analyzer
	Customers  *analytics.Store

	publisher events.Publisher
	logger    *logger.Logger
}

// Config configures a Registry.
type Config struct {
	Seed          ingest.Dataset
	MaxImageBytes int
	Publisher     events.Publisher
	Logger        *logger.Logger
}

// Registry creates workspaces on first use, one per operator.
type Registry struct {
	gateway Gateway
	cfg     Config
	logger  *logger.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry validates the seed once so every workspace can be built from it.
func NewRegistry(gw Gateway, cfg Config) (*Registry, error) {
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if _, err := analytics.NewStore(cfg.Seed.Customers); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return &Registry{
		gateway:    gw,
		cfg:        cfg,
		logger:     cfg.Logger.Named("workspace"),
		workspaces: make(map[string]*Workspace),
	}, nil
}

// Get returns the operator's workspace, creating it if needed.
func (r *Registry) Get(operatorID string) *Workspace {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		operatorID = DefaultOperator
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ws, ok := r.workspaces[operatorID]; ok {
		return ws
	}
	ws := r.build(operatorID)
	r.workspaces[operatorID] = ws
	r.logger.WithOperator(operatorID).Info("workspace created")
	return ws
}

// Operators lists the operators with a workspace, sorted.
func (r *Registry) Operators() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.workspaces))
	for id := range r.workspaces {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) build(operatorID string) *Workspace {
	log := r.cfg.Logger

	var chatSeed, callSeed []model.CallRecord
	for _, rec := range r.cfg.Seed.Calls {
		if rec.Channel == model.ChannelChat {
			chatSeed = append(chatSeed, rec)
		} else {
			callSeed = append(callSeed, rec)
		}
	}

	// The seed was validated in NewRegistry.
	store, _ := analytics.NewStore(r.cfg.Seed.Customers)

	return &Workspace{
		OperatorID: operatorID,
		Chat: session.NewConsole(r.gateway, session.Options{
			Channel:    model.ChannelChat,
			OperatorID: operatorID,
			Greeting:   ChatGreeting,
			History:    chatSeed,
			Publisher:  r.cfg.Publisher,
			Logger:     log,
		}),
		Calls: session.NewConsole(r.gateway, session.Options{
			Channel:    model.ChannelCallCenter,
			OperatorID: operatorID,
			History:    callSeed,
			Publisher:  r.cfg.Publisher,
			Logger:     log,
		}),
		Vision: vision.NewAnalyzer(r.gateway, vision.Options{
			OperatorID:    operatorID,
			MaxImageBytes: r.cfg.MaxImageBytes,
			Publisher:     r.cfg.Publisher,
			Logger:        log,
		}),
		Customers: store,
		publisher: r.cfg.Publisher,
		logger:    log.Named("customers").WithOperator(operatorID),
	}
}

// AddCustomer inserts a customer and announces it.
func (w *Workspace) AddCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	added, err := w.Customers.Add(c)
	if err != nil {
		return model.Customer{}, err
	}
	w.publishCustomer(ctx, added, "add")
	return added, nil
}

// UpdateCustomer applies an update and announces the result.
func (w *Workspace) UpdateCustomer(ctx context.Context, id string, u model.CustomerUpdate) (model.Customer, error) {
	updated, err := w.Customers.Update(id, u)
	if err != nil {
		return model.Customer{}, err
	}
	w.publishCustomer(ctx, updated, "update")
	return updated, nil
}

func (w *Workspace) publishCustomer(ctx context.Context, c model.Customer, kind string) {
	event := events.New(w.OperatorID, model.EventCustomerUpserted, "", c.ID)
	event.Metadata = map[string]any{
		"kind":       kind,
		"risk_level": string(c.RiskLevel()),
		"segment":    string(c.Segment),
	}
	if err := w.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		w.logger.Warn("failed to publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

var _ Gateway = (*gateway.Client)(nil)

// Package vision turns image submissions into normalized analysis results
// and keeps the per-operator analysis history.
package vision

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/events"
	"github.com/capitalize-ai/hotel-ops-console/internal/gateway"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
	"github.com/capitalize-ai/hotel-ops-console/pkg/metrics"
)

// ImagePathPrefix is the operator API path the stored images are served under.
const ImagePathPrefix = "/api/v1/vision/images/"

// DefaultMaxImageBytes bounds an accepted upload.
const DefaultMaxImageBytes = 10 << 20

var (
	ErrEmptyImage    = errors.New("image is empty")
	ErrImageTooLarge = errors.New("image exceeds the size limit")
	ErrNotAnImage    = errors.New("file is not an image")
)

// Gateway is the AI operation an Analyzer needs.
type Gateway interface {
	Analyze(ctx context.Context, img gateway.Image) gateway.VisionResult
}

// Options configures an Analyzer.
type Options struct {
	OperatorID    string
	MaxImageBytes int
	Clock         func() time.Time
	Publisher     events.Publisher
	Logger        *logger.Logger
}

// Analyzer submits images to the AI backend and records the results, most
// recent first.
type Analyzer struct {
	gateway    Gateway
	operatorID string
	maxBytes   int
	clock      func() time.Time
	publisher  events.Publisher
	logger     *logger.Logger

	mu      sync.RWMutex
	history []model.AnalysisResult
	images  map[string]gateway.Image
}

// NewAnalyzer creates an Analyzer with an empty history.
func NewAnalyzer(gw Gateway, opts Options) *Analyzer {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = DefaultMaxImageBytes
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Analyzer{
		gateway:    gw,
		operatorID: opts.OperatorID,
		maxBytes:   opts.MaxImageBytes,
		clock:      opts.Clock,
		publisher:  opts.Publisher,
		logger:     opts.Logger.Named("vision").With(zap.String("operator_id", opts.OperatorID)),
		images:     make(map[string]gateway.Image),
	}
}

// Analyze sends img to the AI backend and prepends the normalized result to
// the history. Backend failures produce the placeholder analysis with
// Fallback set; only unusable uploads return an error.
func (a *Analyzer) Analyze(ctx context.Context, img gateway.Image) (model.AnalysisResult, error) {
	if len(img.Data) == 0 {
		return model.AnalysisResult{}, ErrEmptyImage
	}
	if len(img.Data) > a.maxBytes {
		return model.AnalysisResult{}, ErrImageTooLarge
	}

	if img.ContentType == "" || img.ContentType == "application/octet-stream" {
		img.ContentType = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return model.AnalysisResult{}, ErrNotAnImage
	}

	width, height := dimensions(img.Data)
	vr := a.gateway.Analyze(ctx, img)

	id := uuid.Must(uuid.NewV7()).String()
	result := model.AnalysisResult{
		ID:             id,
		ImageURL:       ImagePathPrefix + id,
		ImageWidth:     width,
		ImageHeight:    height,
		Results:        a.normalize(vr.Detections, width, height),
		ProcessingTime: math.Max(0, vr.ProcessingTime),
		Timestamp:      a.clock(),
		Fallback:       vr.Fallback,
	}

	a.mu.Lock()
	a.images[id] = img
	a.history = append([]model.AnalysisResult{result}, a.history...)
	a.mu.Unlock()

	metrics.ImagesAnalyzedTotal.WithLabelValues(strconv.FormatBool(vr.Fallback)).Inc()
	a.logger.Info("image analyzed",
		zap.String("analysis_id", id),
		zap.Int("detections", len(result.Results)),
		zap.Bool("fallback", vr.Fallback),
	)

	event := events.New(a.operatorID, model.EventImageAnalyzed, model.ChannelVision, id)
	event.Metadata = map[string]any{"detections": len(result.Results), "fallback": vr.Fallback}
	if err := a.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		a.logger.Warn("failed to publish event", zap.Error(err))
	}

	return result.Clone(), nil
}

// Current returns the most recent analysis.
func (a *Analyzer) Current() (model.AnalysisResult, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.history) == 0 {
		return model.AnalysisResult{}, false
	}
	return a.history[0].Clone(), true
}

// History returns every analysis, most recent first.
func (a *Analyzer) History() []model.AnalysisResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.AnalysisResult, len(a.history))
	for i, r := range a.history {
		out[i] = r.Clone()
	}
	return out
}

// Image returns the stored upload behind an analysis.
func (a *Analyzer) Image(id string) (gateway.Image, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	img, ok := a.images[id]
	return img, ok
}

// normalize keeps detections in backend order. Unknown types are dropped,
// confidence is clamped to [0,1] and boxes are clipped to the image.
func (a *Analyzer) normalize(in []gateway.Detection, width, height int) []model.VisionDetection {
	out := make([]model.VisionDetection, 0, len(in))
	for _, d := range in {
		typ := model.DetectionType(strings.ToLower(strings.TrimSpace(d.Type)))
		if !typ.Valid() {
			a.logger.Warn("dropping detection with unknown type", zap.String("type", d.Type))
			continue
		}
		out = append(out, model.VisionDetection{
			Type:        typ,
			Confidence:  clamp(d.Confidence, 0, 1),
			Description: d.Description,
			BoundingBox: clipBox(d.BoundingBox, width, height),
		})
	}
	return out
}

func clipBox(box *model.BoundingBox, width, height int) *model.BoundingBox {
	if box == nil {
		return nil
	}
	b := *box
	if b.X < 0 {
		b.Width += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.Height += b.Y
		b.Y = 0
	}
	if width > 0 && height > 0 {
		w, h := float64(width), float64(height)
		b.X = math.Min(b.X, w)
		b.Y = math.Min(b.Y, h)
		b.Width = math.Min(b.Width, w-b.X)
		b.Height = math.Min(b.Height, h-b.Y)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return nil
	}
	return &b
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// dimensions reads the image header. Unknown formats report 0x0.
func dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

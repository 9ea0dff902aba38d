package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/hotel-ops-console/internal/gateway"
	"github.com/capitalize-ai/hotel-ops-console/internal/middleware"
	"github.com/capitalize-ai/hotel-ops-console/internal/model"
	"github.com/capitalize-ai/hotel-ops-console/internal/vision"
	"github.com/capitalize-ai/hotel-ops-console/pkg/logger"
)

// VisionResponse is returned by GET /api/v1/vision.
type VisionResponse struct {
	Current *model.AnalysisResult  `json:"current"`
	History []model.AnalysisResult `json:"history"`
}

// VisionHandler handles image analysis endpoints.
type VisionHandler struct {
	workspaces Workspaces
	maxBytes   int64
	logger     *logger.Logger
}

// NewVisionHandler creates a new vision handler.
func NewVisionHandler(ws Workspaces, maxImageBytes int64, log *logger.Logger) *VisionHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = vision.DefaultMaxImageBytes
	}
	return &VisionHandler{
		workspaces: ws,
		maxBytes:   maxImageBytes,
		logger:     log.Named("handler").With(zap.String("channel", string(model.ChannelVision))),
	}
}

func (h *VisionHandler) analyzer(r *http.Request) *vision.Analyzer {
	return h.workspaces.Get(middleware.GetOperatorID(r.Context())).Vision
}

// Analyze handles POST /api/v1/vision/analyze
func (h *VisionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	// Headroom for the multipart envelope.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+64<<10)

	file, header, err := r.FormFile(gateway.ImageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, vision.ErrImageTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	result, err := h.analyzer(r).Analyze(r.Context(), gateway.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// List handles GET /api/v1/vision
func (h *VisionHandler) List(w http.ResponseWriter, r *http.Request) {
	a := h.analyzer(r)
	resp := VisionResponse{History: a.History()}
	if cur, ok := a.Current(); ok {
		resp.Current = &cur
	}
	writeJSON(w, http.StatusOK, resp)
}

// Image handles GET /api/v1/vision/images/{id}
func (h *VisionHandler) Image(w http.ResponseWriter, r *http.Request) {
	img, ok := h.analyzer(r).Image(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

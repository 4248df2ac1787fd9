package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/peek/internal/imgio"
	"github.com/MeKo-Tech/peek/internal/inference"
	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/MeKo-Tech/peek/internal/pipeline"
	"github.com/MeKo-Tech/peek/internal/render"
	"github.com/MeKo-Tech/peek/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding health response: %v\n", err)
	}
}

// modelsHandler returns information about available models.
func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	descs := models.List()
	list := make([]ModelInfo, len(descs))
	for i, d := range descs {
		list[i] = ModelInfo{
			ID:          d.ID,
			Name:        d.Name,
			Task:        string(d.Task),
			Description: d.Description,
		}
	}

	response := ModelsResponse{Models: list, Count: len(list)}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding models response: %v\n", err)
	}
}

// classifyHandler processes image classification requests.
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	img, modelID, ok := s.readImageRequest(w, r, "classify")
	if !ok {
		return
	}
	if modelID == "" {
		modelID = models.MobileNetV2
	}

	start := time.Now()
	res, err := s.pipeline.Classify(r.Context(), img, modelID)
	duration := time.Since(start)
	if err != nil {
		inferenceRequestsTotal.WithLabelValues("classify", "error").Inc()
		s.writePipelineError(w, err)
		return
	}

	inferenceRequestsTotal.WithLabelValues("classify", "success").Inc()
	inferenceDuration.WithLabelValues("classify").Observe(duration.Seconds())

	labels := make([]LabelJSON, len(res.Labels))
	for i, l := range res.Labels {
		labels[i] = LabelJSON{Label: l.Label, Score: l.Score}
	}

	w.Header().Set("Content-Type", "application/json")
	response := ClassifyResponse{
		Model:  res.ModelID,
		Labels: labels,
		Count:  len(labels),
		Empty:  res.Empty,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding classify response: %v\n", err)
	}
}

// detectHandler processes object detection requests. With render=true the
// response is the overlay PNG instead of the JSON envelope.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	img, modelID, ok := s.readImageRequest(w, r, "detect")
	if !ok {
		return
	}
	if modelID == "" {
		modelID = models.CocoSSD
	}

	start := time.Now()
	res, err := s.pipeline.Detect(r.Context(), img, modelID)
	duration := time.Since(start)
	if err != nil {
		inferenceRequestsTotal.WithLabelValues("detect", "error").Inc()
		s.writePipelineError(w, err)
		return
	}

	inferenceRequestsTotal.WithLabelValues("detect", "success").Inc()
	inferenceDuration.WithLabelValues("detect").Observe(duration.Seconds())
	detectionsFound.Observe(float64(len(res.Detections)))

	if wantRender(r) {
		s.writeOverlayResponse(w, res)
		return
	}

	dets := make([]DetectionJSON, len(res.Detections))
	for i, d := range res.Detections {
		dets[i] = DetectionJSON{
			Label: d.Label,
			Score: d.Score,
			Box:   BoxJSON{X: d.Box.X, Y: d.Box.Y, Width: d.Box.Width, Height: d.Box.Height},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	response := DetectResponse{
		Model:      res.ModelID,
		Detections: dets,
		Count:      len(dets),
		Width:      res.Width,
		Height:     res.Height,
		Empty:      res.Empty,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding detect response: %v\n", err)
	}
}

// writeOverlayResponse streams the annotated image as a PNG download.
func (s *Server) writeOverlayResponse(w http.ResponseWriter, res *pipeline.DetectResult) {
	if !s.overlayEnabled {
		s.writeErrorResponse(w, "overlay output disabled", http.StatusForbidden)
		return
	}
	if res.Overlay == nil {
		s.writeErrorResponse(w, "no objects detected", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", render.ExportFilename))
	if err := render.WritePNG(w, res.Overlay); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing overlay response: %v\n", err)
	}
}

// readImageRequest parses the multipart upload shared by the classify and
// detect endpoints. It writes the error response itself on failure.
func (s *Server) readImageRequest(w http.ResponseWriter, r *http.Request, kind string) (image.Image, string, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, "", false
	}

	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	if err := imgio.ValidateUpload(header.Size, limit); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return nil, "", false
	}

	img, _, err := imgio.DecodeBytes(data)
	if err != nil {
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return nil, "", false
	}

	if s.pipeline == nil {
		s.writeErrorResponse(w, kind+" pipeline not initialized", http.StatusServiceUnavailable)
		return nil, "", false
	}

	model := r.FormValue("model")
	if model == "" {
		model = r.URL.Query().Get("model")
	}
	return img, model, true
}

// wantRender reports whether the overlay PNG was requested.
func wantRender(r *http.Request) bool {
	v := r.FormValue("render")
	if v == "" {
		v = r.URL.Query().Get("render")
	}
	return v == "true" || v == "1"
}

// writePipelineError maps pipeline errors onto HTTP status codes.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var (
		validationErr *imgio.ValidationError
		loadErr       *imgio.LoadError
		modelErr      *models.UnsupportedModelError
		taskErr       *pipeline.WrongTaskError
	)
	switch {
	case errors.Is(err, inference.ErrBusy):
		w.Header().Set("Retry-After", "1")
		s.writeErrorResponse(w, "a request is already in flight, please wait", http.StatusTooManyRequests)
	case errors.As(err, &modelErr):
		s.writeErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &validationErr), errors.As(err, &loadErr), errors.As(err, &taskErr):
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
	default:
		s.writeErrorResponse(w, fmt.Sprintf("processing failed: %v", err), http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Success: false, Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing error response: %v\n", err)
	}
}

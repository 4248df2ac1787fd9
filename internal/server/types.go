// Package server exposes the classification and detection pipeline over
// HTTP and WebSocket.
package server

import (
	"context"
	"image"
	"net/http"

	"github.com/MeKo-Tech/peek/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// processor defines the methods the server needs from a pipeline.
type processor interface {
	Classify(ctx context.Context, img image.Image, modelID string) (*pipeline.ClassifyResult, error)
	Detect(ctx context.Context, img image.Image, modelID string) (*pipeline.DetectResult, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline       processor
	corsOrigin     string
	maxUploadMB    int64
	timeoutSec     int
	overlayEnabled bool
	rateLimiter    *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	OverlayEnabled  bool
	RateLimitPerMin int
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Task        string `json:"task"`
	Description string `json:"description"`
}

type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	Count  int         `json:"count"`
}

type LabelJSON struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type BoxJSON struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type DetectionJSON struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
	Box   BoxJSON `json:"box"`
}

type ClassifyResponse struct {
	Model  string      `json:"model"`
	Labels []LabelJSON `json:"labels"`
	Count  int         `json:"count"`
	Empty  bool        `json:"empty"`
}

type DetectResponse struct {
	Model      string          `json:"model"`
	Detections []DetectionJSON `json:"detections"`
	Count      int             `json:"count"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Empty      bool            `json:"empty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a new server instance around a built pipeline.
func NewServer(config Config, pl *pipeline.Pipeline) *Server {
	s := &Server{
		pipeline:       pl,
		corsOrigin:     config.CORSOrigin,
		maxUploadMB:    config.MaxUploadMB,
		timeoutSec:     config.TimeoutSec,
		overlayEnabled: config.OverlayEnabled,
	}
	if config.RateLimitPerMin > 0 {
		s.rateLimiter = NewRateLimiter(config.RateLimitPerMin, 0, 0, 0)
	}
	return s
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/models", s.corsMiddleware(s.modelsHandler))
	mux.HandleFunc("/classify", s.corsMiddleware(s.rateLimitMiddleware(s.classifyHandler)))
	mux.HandleFunc("/detect", s.corsMiddleware(s.rateLimitMiddleware(s.detectHandler)))
	mux.HandleFunc("/ws", s.detectWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

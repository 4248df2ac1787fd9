package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/peek/internal/imgio"
	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are the deployment's responsibility, sit behind a
		// reverse proxy in production.
		return true
	},
}

// WebSocketDetectRequest is a detection request sent over WebSocket.
// Image carries the raw encoded bytes (base64 in the JSON frame).
type WebSocketDetectRequest struct {
	Model string `json:"model,omitempty"`
	Image []byte `json:"image"`
}

// WebSocketDetectResponse is a detection response frame.
type WebSocketDetectResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Progress  float64     `json:"progress,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// websocketWriter is the subset of *websocket.Conn the senders need.
type websocketWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// detectWebSocketHandler handles WebSocket connections for streaming
// detection requests.
func (s *Server) detectWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	// Read deadline prevents hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage processes a single detection request frame.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	var req WebSocketDetectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      "detect_response",
		Status:    "processing",
		Progress:  0.0,
		RequestID: requestID,
	})

	s.processWebSocketDetect(ctx, conn, req, requestID)
}

// processWebSocketDetect runs the detection flow for a WebSocket request.
func (s *Server) processWebSocketDetect(ctx context.Context, conn *websocket.Conn, req WebSocketDetectRequest, requestID string) {
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No image data provided")
		return
	}
	if err := imgio.ValidateUpload(int64(len(req.Image)), s.maxUploadMB*1024*1024); err != nil {
		s.sendWebSocketError(conn, "invalid_request", err.Error())
		return
	}

	img, _, err := imgio.DecodeBytes(req.Image)
	if err != nil {
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	modelID := req.Model
	if modelID == "" {
		modelID = models.CocoSSD
	}

	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      "detect_response",
		Status:    "processing",
		Progress:  0.5,
		RequestID: requestID,
	})

	start := time.Now()
	res, err := s.pipeline.Detect(ctx, img, modelID)
	duration := time.Since(start)

	if err != nil {
		inferenceRequestsTotal.WithLabelValues("ws_detect", "error").Inc()
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Detection failed: %v", err))
		return
	}

	inferenceRequestsTotal.WithLabelValues("ws_detect", "success").Inc()
	inferenceDuration.WithLabelValues("ws_detect").Observe(duration.Seconds())
	detectionsFound.Observe(float64(len(res.Detections)))

	dets := make([]DetectionJSON, len(res.Detections))
	for i, d := range res.Detections {
		dets[i] = DetectionJSON{
			Label: d.Label,
			Score: d.Score,
			Box:   BoxJSON{X: d.Box.X, Y: d.Box.Y, Width: d.Box.Width, Height: d.Box.Height},
		}
	}

	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:     "detect_response",
		Status:   "completed",
		Progress: 1.0,
		Result: DetectResponse{
			Model:      res.ModelID,
			Detections: dets,
			Count:      len(dets),
			Width:      res.Width,
			Height:     res.Height,
			Empty:      res.Empty,
		},
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response frame.
func (s *Server) sendWebSocketResponse(conn websocketWriter, response WebSocketDetectResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error frame.
func (s *Server) sendWebSocketError(conn websocketWriter, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}

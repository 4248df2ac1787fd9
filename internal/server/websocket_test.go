package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/peek/internal/pipeline"
	"github.com/MeKo-Tech/peek/internal/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestSocket(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.detectWebSocketHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) WebSocketDetectResponse {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var resp WebSocketDetectResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.GradientImage(64, 64)))
	return buf.Bytes()
}

func TestWebSocketDetectFlow(t *testing.T) {
	p := &mockProcessor{
		detectFn: func(_ context.Context, _ image.Image, modelID string) (*pipeline.DetectResult, error) {
			return &pipeline.DetectResult{
				ModelID: modelID,
				Detections: []pipeline.Detection{
					{Label: "cat", Score: 0.9},
				},
				Width:  64,
				Height: 64,
			}, nil
		},
	}
	conn := dialTestSocket(t, newTestServer(p))

	req := WebSocketDetectRequest{Image: pngBytes(t)}
	require.NoError(t, conn.WriteJSON(req))

	first := readFrame(t, conn)
	assert.Equal(t, "processing", first.Status)
	assert.NotEmpty(t, first.RequestID)

	var last WebSocketDetectResponse
	for i := 0; i < 3; i++ {
		last = readFrame(t, conn)
		if last.Status != "processing" {
			break
		}
	}
	assert.Equal(t, "completed", last.Status)
	assert.InDelta(t, 1.0, last.Progress, 1e-9)
	assert.Equal(t, first.RequestID, last.RequestID)
	require.NotNil(t, last.Result)
}

func TestWebSocketInvalidJSON(t *testing.T) {
	conn := dialTestSocket(t, newTestServer(&mockProcessor{}))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	resp := readFrame(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "invalid_request", resp.ErrorType)
}

func TestWebSocketMissingImage(t *testing.T) {
	conn := dialTestSocket(t, newTestServer(&mockProcessor{}))

	require.NoError(t, conn.WriteJSON(WebSocketDetectRequest{}))

	// First frame is the processing acknowledgement, second the error.
	_ = readFrame(t, conn)
	resp := readFrame(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "No image data")
}

func TestWebSocketDetectError(t *testing.T) {
	p := &mockProcessor{
		detectFn: func(_ context.Context, _ image.Image, _ string) (*pipeline.DetectResult, error) {
			return nil, assert.AnError
		},
	}
	conn := dialTestSocket(t, newTestServer(p))

	require.NoError(t, conn.WriteJSON(WebSocketDetectRequest{Image: pngBytes(t)}))

	var resp WebSocketDetectResponse
	for i := 0; i < 4; i++ {
		resp = readFrame(t, conn)
		if resp.Status != "processing" {
			break
		}
	}
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "processing_error", resp.ErrorType)
}

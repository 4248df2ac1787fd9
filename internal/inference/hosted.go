package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultHostedTimeout bounds a hosted inference round trip when the caller's
// context carries no deadline.
const DefaultHostedTimeout = 60 * time.Second

// HostedClient calls a hosted inference API over HTTP. It implements Engine.
// It performs no retries; errors surface to the caller unchanged.
type HostedClient struct {
	baseURL string
	token   string
	hc      *http.Client
}

// hostedBox mirrors the hosted API's detection box shape.
type hostedBox struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

type hostedDetection struct {
	Label string    `json:"label"`
	Score float64   `json:"score"`
	Box   hostedBox `json:"box"`
}

// NewHostedClient creates a client for the hosted inference API at baseURL.
// The token may be empty for unauthenticated endpoints.
func NewHostedClient(baseURL, token string) (*HostedClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid hosted API URL: %q", baseURL)
	}
	return &HostedClient{
		baseURL: u.String(),
		token:   token,
		hc:      &http.Client{},
	}, nil
}

// Classify posts the encoded image to the hosted classifier and returns its
// labels, pre-filtered at the acceptance threshold.
func (c *HostedClient) Classify(ctx context.Context, modelID string, imageData []byte) ([]Classification, error) {
	body, err := c.post(ctx, modelID, imageData)
	if err != nil {
		return nil, err
	}
	var cls []Classification
	if err := json.Unmarshal(body, &cls); err != nil {
		return nil, fmt.Errorf("decoding hosted classification response: %w", err)
	}
	return FilterClassifications(cls, AcceptThreshold), nil
}

// Detect posts the encoded image to the hosted detector and returns its
// detections in corner-pair layout, pre-filtered at the acceptance threshold.
func (c *HostedClient) Detect(ctx context.Context, modelID string, imageData []byte) ([]RawDetection, error) {
	body, err := c.post(ctx, modelID, imageData)
	if err != nil {
		return nil, err
	}
	var raw []hostedDetection
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding hosted detection response: %w", err)
	}
	dets := make([]RawDetection, len(raw))
	for i, d := range raw {
		dets[i] = RawDetection{
			Box:   [4]float64{d.Box.XMin, d.Box.YMin, d.Box.XMax, d.Box.YMax},
			Label: d.Label,
			Score: d.Score,
		}
	}
	return FilterDetections(dets, AcceptThreshold), nil
}

func (c *HostedClient) post(ctx context.Context, modelID string, imageData []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultHostedTimeout)
		defer cancel()
	}

	// Model ids may contain path segments (e.g. "org/model").
	endpoint := c.baseURL + "/models/" + modelID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(imageData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hosted inference request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading hosted inference response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hosted inference returned %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

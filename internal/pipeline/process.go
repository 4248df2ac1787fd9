package pipeline

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/peek/internal/common"
	"github.com/MeKo-Tech/peek/internal/imgio"
	"github.com/MeKo-Tech/peek/internal/inference"
	"github.com/MeKo-Tech/peek/internal/mapper"
	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/MeKo-Tech/peek/internal/preprocess"
	"github.com/MeKo-Tech/peek/internal/render"
)

// WrongTaskError reports a model invoked through the wrong flow.
type WrongTaskError struct {
	ModelID string
	Task    preprocess.Task
}

func (e *WrongTaskError) Error() string {
	if e.Task == preprocess.TaskDetection {
		return fmt.Sprintf("model %q is a detection model, not a classifier", e.ModelID)
	}
	return fmt.Sprintf("model %q is a classification model, not a detector", e.ModelID)
}

// ClassifyResult is the outcome of a classification request.
type ClassifyResult struct {
	ModelID string
	Labels  []inference.Classification
	// Empty marks the soft no-results state: nothing cleared the score
	// threshold. It is not an error.
	Empty   bool
	Timings common.StageTimings
}

// Detection is one mapped detection in original-image pixel coordinates.
type Detection struct {
	Box   mapper.Rect
	Label string
	Score float64
}

// DetectResult is the outcome of a detection request.
type DetectResult struct {
	ModelID    string
	Detections []Detection
	// Overlay carries the boxes burned into a copy of the original image
	// when overlay rendering is enabled and there are detections.
	Overlay *image.RGBA
	Width   int
	Height  int
	Empty   bool
	Timings common.StageTimings
}

// Classify runs the classification flow: preprocess, acquire the in-flight
// slot, infer, threshold. Requests issued while another is outstanding fail
// immediately with inference.ErrBusy.
func (p *Pipeline) Classify(ctx context.Context, img image.Image, modelID string) (*ClassifyResult, error) {
	desc, err := models.Lookup(modelID)
	if err != nil {
		return nil, err
	}
	if desc.Task != preprocess.TaskClassification {
		return nil, &WrongTaskError{ModelID: modelID, Task: desc.Task}
	}

	res := &ClassifyResult{ModelID: modelID}

	t := res.Timings.Start("preprocess")
	opts := p.cfg.Preprocess
	opts.Task = preprocess.TaskClassification
	opts.Provider = desc.Provider
	pre, err := preprocess.Preprocess(img, opts)
	t.Stop()
	if err != nil {
		return nil, err
	}

	if err := p.session.TryAcquire(); err != nil {
		return nil, err
	}
	defer p.session.Release()

	if _, err := p.loader.Handle(ctx, modelID); err != nil {
		return nil, fmt.Errorf("loading model %q: %w", modelID, err)
	}

	t = res.Timings.Start("inference")
	labels, err := p.engine.Classify(ctx, modelID, pre.Data)
	t.Stop()
	if err != nil {
		return nil, fmt.Errorf("classification inference: %w", err)
	}

	res.Labels = inference.FilterClassifications(labels, p.cfg.MinScore)
	res.Empty = len(res.Labels) == 0

	slog.Debug("classification complete",
		"model", modelID, "labels", len(res.Labels), "timings", res.Timings.String())
	return res, nil
}

// Detect runs the detection flow: preprocess (no pixel filtering), acquire
// the in-flight slot, infer, threshold, map boxes back to the original image
// space, and optionally render the overlay.
func (p *Pipeline) Detect(ctx context.Context, img image.Image, modelID string) (*DetectResult, error) {
	desc, err := models.Lookup(modelID)
	if err != nil {
		return nil, err
	}
	if desc.Task != preprocess.TaskDetection {
		return nil, &WrongTaskError{ModelID: modelID, Task: desc.Task}
	}
	if img == nil {
		return nil, &imgio.LoadError{Operation: "detect", Err: fmt.Errorf("input image is nil")}
	}

	b := img.Bounds()
	res := &DetectResult{ModelID: modelID, Width: b.Dx(), Height: b.Dy()}

	t := res.Timings.Start("preprocess")
	opts := p.cfg.Preprocess
	opts.Task = preprocess.TaskDetection
	opts.Provider = desc.Provider
	pre, err := preprocess.Preprocess(img, opts)
	t.Stop()
	if err != nil {
		return nil, err
	}

	if err := p.session.TryAcquire(); err != nil {
		return nil, err
	}
	defer p.session.Release()

	if _, err := p.loader.Handle(ctx, modelID); err != nil {
		return nil, fmt.Errorf("loading model %q: %w", modelID, err)
	}

	t = res.Timings.Start("inference")
	raw, err := p.engine.Detect(ctx, modelID, pre.Data)
	t.Stop()
	if err != nil {
		return nil, fmt.Errorf("detection inference: %w", err)
	}
	raw = inference.FilterDetections(raw, p.cfg.MinScore)

	t = res.Timings.Start("map")
	sp := scalingFor(desc, pre)
	for _, d := range raw {
		rect, err := mapper.Map(d.Box, desc.Family, res.Width, res.Height, sp)
		if err != nil {
			return nil, err
		}
		res.Detections = append(res.Detections, Detection{Box: rect, Label: d.Label, Score: d.Score})
	}
	t.Stop()
	res.Empty = len(res.Detections) == 0

	if p.cfg.RenderOverlay && !res.Empty {
		t = res.Timings.Start("render")
		overlay, err := render.Overlay(img, renderable(res.Detections))
		t.Stop()
		if err != nil {
			return nil, err
		}
		res.Overlay = overlay
	}

	slog.Debug("detection complete",
		"model", modelID, "detections", len(res.Detections), "timings", res.Timings.String())
	return res, nil
}

// scalingFor selects the scaling parameters matching the model family's
// coordinate space: corner-pair boxes arrive in the resized image space,
// origin+extent boxes in the fixed letterboxed canvas space.
func scalingFor(desc models.Descriptor, pre *preprocess.Result) preprocess.ScalingParameters {
	if desc.Family == models.FamilyOriginExtent {
		return preprocess.LetterboxParams(pre.Width, pre.Height, desc.CanvasSize, desc.CanvasSize)
	}
	return pre.Scaling
}

func renderable(dets []Detection) []render.Detection {
	out := make([]render.Detection, len(dets))
	for i, d := range dets {
		out[i] = render.Detection{Rect: d.Box, Label: d.Label, Score: d.Score}
	}
	return out
}

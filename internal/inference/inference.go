// Package inference defines the contract with the model backends: the
// classify/detect capabilities the pipeline consumes, score thresholding,
// the single in-flight session slot, and the memoized model-handle loader.
// The pipeline does not know whether a backend runs locally or over the
// network; it only carries the model identifier through.
package inference

import "context"

// AcceptThreshold is the fixed score floor; results at or below it are
// discarded before mapping or display.
const AcceptThreshold = 0.35

// Classification is one whole-image label with its confidence in [0,1].
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RawDetection is one detector output before coordinate mapping. The box
// layout follows the producing model family's convention and is resolved by
// the mapper, not here.
type RawDetection struct {
	Box   [4]float64 `json:"box"`
	Label string     `json:"label"`
	Score float64    `json:"score"`
}

// Classifier produces whole-image labels for an encoded image.
type Classifier interface {
	Classify(ctx context.Context, modelID string, imageData []byte) ([]Classification, error)
}

// Detector produces object detections for an encoded image.
type Detector interface {
	Detect(ctx context.Context, modelID string, imageData []byte) ([]RawDetection, error)
}

// Engine bundles both capabilities behind one backend.
type Engine interface {
	Classifier
	Detector
}

// FilterDetections drops detections with scores at or below the threshold.
// An empty result is not an error; callers report it as a no-results state.
func FilterDetections(dets []RawDetection, threshold float64) []RawDetection {
	out := make([]RawDetection, 0, len(dets))
	for _, d := range dets {
		if d.Score > threshold {
			out = append(out, d)
		}
	}
	return out
}

// FilterClassifications drops classifications with scores at or below the
// threshold.
func FilterClassifications(cls []Classification, threshold float64) []Classification {
	out := make([]Classification, 0, len(cls))
	for _, c := range cls {
		if c.Score > threshold {
			out = append(out, c)
		}
	}
	return out
}

// Package models defines the registry of known inference models and the
// coordinate conventions of their outputs.
package models

import (
	"fmt"
	"sort"

	"github.com/MeKo-Tech/peek/internal/preprocess"
)

// Family identifies the coordinate convention a detector emits. It is an
// explicit tag carried on the descriptor; nothing may re-derive it from the
// model identifier at mapping time.
type Family int

const (
	// FamilyUnknown is the zero value and always fails mapping.
	FamilyUnknown Family = iota
	// FamilyCornerPair emits [xmin, ymin, xmax, ymax] in the resized
	// (pre-letterbox) image's coordinate space.
	FamilyCornerPair
	// FamilyOriginExtent emits [x, y, width, height] in the letterboxed
	// canvas coordinate space.
	FamilyOriginExtent
)

func (f Family) String() string {
	switch f {
	case FamilyCornerPair:
		return "corner-pair"
	case FamilyOriginExtent:
		return "origin-extent"
	default:
		return "unknown"
	}
}

// UnsupportedModelError indicates an unknown model identifier reached the
// registry or the mapper. It points at a configuration bug, not bad input.
type UnsupportedModelError struct {
	ID string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model: %q", e.ID)
}

// DefaultCanvasSize is the fixed canvas edge used by the origin+extent
// detection flow.
const DefaultCanvasSize = 640

// Descriptor describes a registered model.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Task        preprocess.Task
	Family      Family
	Provider    preprocess.Provider
	// CanvasSize is the fixed canvas edge for origin+extent detectors;
	// zero for everything else.
	CanvasSize int
}

// Known model identifiers.
const (
	CocoSSD     = "coco-ssd"
	DETRResNet  = "facebook/detr-resnet-50"
	MobileNetV2 = "mobilenet-v2"
	ViTBase     = "google/vit-base-patch16-224"
)

var registry = map[string]Descriptor{
	CocoSSD: {
		ID:          CocoSSD,
		Name:        "COCO-SSD",
		Description: "SSD object detector over the COCO label set",
		Task:        preprocess.TaskDetection,
		Family:      FamilyOriginExtent,
		CanvasSize:  DefaultCanvasSize,
	},
	DETRResNet: {
		ID:          DETRResNet,
		Name:        "DETR ResNet-50",
		Description: "Hosted transformer object detector",
		Task:        preprocess.TaskDetection,
		Family:      FamilyCornerPair,
		Provider:    preprocess.ProviderHuggingFace,
	},
	MobileNetV2: {
		ID:          MobileNetV2,
		Name:        "MobileNet v2",
		Description: "Whole-image classifier",
		Task:        preprocess.TaskClassification,
	},
	ViTBase: {
		ID:          ViTBase,
		Name:        "ViT Base",
		Description: "Hosted vision-transformer classifier",
		Task:        preprocess.TaskClassification,
		Provider:    preprocess.ProviderHuggingFace,
	},
}

// Lookup returns the descriptor for a model identifier.
func Lookup(id string) (Descriptor, error) {
	d, ok := registry[id]
	if !ok {
		return Descriptor{}, &UnsupportedModelError{ID: id}
	}
	return d, nil
}

// List returns all registered descriptors in a stable order.
func List() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Detectors returns the registered detection models.
func Detectors() []Descriptor {
	var out []Descriptor
	for _, d := range List() {
		if d.Task == preprocess.TaskDetection {
			out = append(out, d)
		}
	}
	return out
}

// Classifiers returns the registered classification models.
func Classifiers() []Descriptor {
	var out []Descriptor
	for _, d := range List() {
		if d.Task == preprocess.TaskClassification {
			out = append(out, d)
		}
	}
	return out
}

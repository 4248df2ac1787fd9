package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/peek/internal/imgio"
	"github.com/MeKo-Tech/peek/internal/pipeline"
	"github.com/MeKo-Tech/peek/internal/render"
	"github.com/spf13/cobra"
)

// detectCmd represents the detect command.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect objects in images against a hosted model",
	Long: `Detect objects in one or more image files. Returned bounding boxes are
mapped back into the original image's pixel coordinates and clamped to its
bounds. With --render, an annotated copy of the image is written next to
the results.

Examples:
  peek detect photo.jpg
  peek detect photo.jpg --render
  peek detect *.jpg --format json --model facebook/detr-resnet-50`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()
		applyProcessingFlags(cmd, cfg)

		format := cfg.Output.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}
		if format != outputFormatText && format != outputFormatJSON {
			return fmt.Errorf("invalid output format: %s (must be one of: text, json)", format)
		}

		modelID := cfg.Inference.DefaultDetector
		if cmd.Flags().Changed("model") {
			modelID, _ = cmd.Flags().GetString("model")
		}

		doRender, _ := cmd.Flags().GetBool("render")
		overlayDir := cfg.Output.OverlayDir
		if cmd.Flags().Changed("overlay-dir") {
			overlayDir, _ = cmd.Flags().GetString("overlay-dir")
		}

		p, err := cfg.BuildPipeline()
		if err != nil {
			return fmt.Errorf("failed to build pipeline: %w", err)
		}

		out, closeOut, err := resolveOutput(cmd)
		if err != nil {
			return err
		}
		defer closeOut()

		for _, path := range args {
			if !imgio.IsSupportedImage(path) {
				return fmt.Errorf("unsupported image file: %s", path)
			}

			img, _, err := imgio.LoadImage(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}

			res, err := p.Detect(cmd.Context(), img, modelID)
			if err != nil {
				return fmt.Errorf("detecting %s: %w", path, err)
			}

			if err := writeDetectResult(out, format, path, res); err != nil {
				return err
			}

			if doRender {
				if err := exportOverlay(path, overlayDir, res); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

// writeDetectResult renders one detection result in the chosen format.
func writeDetectResult(w io.Writer, format, path string, res *pipeline.DetectResult) error {
	if format == outputFormatJSON {
		obj := struct {
			File       string          `json:"file"`
			Model      string          `json:"model"`
			Detections []detectBoxJSON `json:"detections"`
			Width      int             `json:"width"`
			Height     int             `json:"height"`
			Empty      bool            `json:"empty"`
		}{File: path, Model: res.ModelID, Detections: make([]detectBoxJSON, len(res.Detections)),
			Width: res.Width, Height: res.Height, Empty: res.Empty}
		for i, d := range res.Detections {
			obj.Detections[i] = detectBoxJSON{
				Label: d.Label, Score: d.Score,
				X: d.Box.X, Y: d.Box.Y, Width: d.Box.Width, Height: d.Box.Height,
			}
		}
		return json.NewEncoder(w).Encode(obj)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%dx%d):\n", path, res.Width, res.Height)
	if res.Empty {
		b.WriteString("  no objects above threshold\n")
	}
	for i, d := range res.Detections {
		fmt.Fprintf(&b, "  #%d %-16s %5.1f%%  box=(%.0f,%.0f %.0fx%.0f)\n",
			i+1, d.Label, d.Score*100, d.Box.X, d.Box.Y, d.Box.Width, d.Box.Height)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type detectBoxJSON struct {
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// exportOverlay writes the annotated image for a detect result. Results
// without detections produce no file.
func exportOverlay(srcPath, dir string, res *pipeline.DetectResult) error {
	if res.Overlay == nil {
		return nil
	}
	if dir == "" {
		dir = filepath.Dir(srcPath)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating overlay directory: %w", err)
	}

	dst := filepath.Join(dir, render.ExportFilename)
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating overlay file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := render.WritePNG(f, res.Overlay); err != nil {
		return fmt.Errorf("writing overlay: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(detectCmd)
	addProcessingFlags(detectCmd)
	detectCmd.Flags().Bool("render", false, "write an annotated overlay image")
	detectCmd.Flags().String("overlay-dir", "", "directory for overlay images (default: next to the input)")
}

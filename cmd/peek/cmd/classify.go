package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MeKo-Tech/peek/internal/config"
	"github.com/MeKo-Tech/peek/internal/imgio"
	"github.com/MeKo-Tech/peek/internal/pipeline"
	"github.com/spf13/cobra"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// classifyCmd represents the classify command.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify images against a hosted model",
	Long: `Classify one or more image files. Images are denoised, sharpened and
contrast-enhanced before inference; labels below the acceptance threshold
are dropped.

Supported formats: JPEG, PNG, GIF, BMP, WebP

Examples:
  peek classify photo.jpg
  peek classify *.png --format json
  peek classify photo.jpg --model google/vit-base-patch16-224`,
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

		modelID := cfg.Inference.DefaultClassifier
		if cmd.Flags().Changed("model") {
			modelID, _ = cmd.Flags().GetString("model")
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

			res, err := p.Classify(cmd.Context(), img, modelID)
			if err != nil {
				return fmt.Errorf("classifying %s: %w", path, err)
			}

			if err := writeClassifyResult(out, format, path, res); err != nil {
				return err
			}
		}
		return nil
	},
}

// writeClassifyResult renders one classification result in the chosen format.
func writeClassifyResult(w io.Writer, format, path string, res *pipeline.ClassifyResult) error {
	if format == outputFormatJSON {
		obj := struct {
			File   string              `json:"file"`
			Model  string              `json:"model"`
			Labels []classifyLabelJSON `json:"labels"`
			Empty  bool                `json:"empty"`
		}{File: path, Model: res.ModelID, Labels: make([]classifyLabelJSON, len(res.Labels)), Empty: res.Empty}
		for i, l := range res.Labels {
			obj.Labels[i] = classifyLabelJSON{Label: l.Label, Score: l.Score}
		}
		enc := json.NewEncoder(w)
		return enc.Encode(obj)
	}

	var b strings.Builder
	b.WriteString(path + ":\n")
	if res.Empty {
		b.WriteString("  no labels above threshold\n")
	}
	for _, l := range res.Labels {
		fmt.Fprintf(&b, "  %-24s %5.1f%%\n", l.Label, l.Score*100)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type classifyLabelJSON struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// applyProcessingFlags folds changed preprocessing/inference flags into cfg.
func applyProcessingFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-size") {
		cfg.Preprocess.MaxSize, _ = cmd.Flags().GetInt("max-size")
	}
	if cmd.Flags().Changed("quality") {
		cfg.Preprocess.Quality, _ = cmd.Flags().GetFloat64("quality")
	}
	if cmd.Flags().Changed("denoise") {
		cfg.Preprocess.Denoise, _ = cmd.Flags().GetBool("denoise")
	}
	if cmd.Flags().Changed("sharpen") {
		cfg.Preprocess.Sharpen, _ = cmd.Flags().GetBool("sharpen")
	}
	if cmd.Flags().Changed("enhance-contrast") {
		cfg.Preprocess.EnhanceContrast, _ = cmd.Flags().GetBool("enhance-contrast")
	}
	if cmd.Flags().Changed("min-score") {
		cfg.Inference.MinScore, _ = cmd.Flags().GetFloat64("min-score")
	}
}

// resolveOutput opens the --output destination, defaulting to stdout.
func resolveOutput(cmd *cobra.Command) (io.Writer, func(), error) {
	outputFile, _ := cmd.Flags().GetString("output")
	if outputFile == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// addProcessingFlags registers the flags shared by classify and detect.
func addProcessingFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringP("model", "m", "", "model id (defaults to the configured model)")
	cmd.Flags().Int("max-size", 1024, "maximum longer dimension after scaling")
	cmd.Flags().Float64("quality", 0.9, "lossy re-encoding quality (0..1)")
	cmd.Flags().Bool("denoise", true, "apply median denoising (classification only)")
	cmd.Flags().Bool("sharpen", true, "apply sharpening (classification only)")
	cmd.Flags().Bool("enhance-contrast", true, "apply adaptive contrast (classification only)")
	cmd.Flags().Float64("min-score", 0.35, "acceptance score threshold (0..1)")
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	addProcessingFlags(classifyCmd)
}

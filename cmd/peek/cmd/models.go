package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/peek/internal/models"
	"github.com/spf13/cobra"
)

// modelsCmd represents the models command.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the supported models",
	Long: `List the models peek can run, with their task and provider.

Examples:
  peek models
  peek models --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		descs := models.List()

		if format == outputFormatJSON {
			type modelJSON struct {
				ID          string `json:"id"`
				Name        string `json:"name"`
				Task        string `json:"task"`
				Provider    string `json:"provider,omitempty"`
				Description string `json:"description"`
			}
			list := make([]modelJSON, len(descs))
			for i, d := range descs {
				list[i] = modelJSON{
					ID:          d.ID,
					Name:        d.Name,
					Task:        string(d.Task),
					Provider:    string(d.Provider),
					Description: d.Description,
				}
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(list)
		}

		w := cmd.OutOrStdout()
		for _, d := range descs {
			fmt.Fprintf(w, "%-32s %-14s %s\n", d.ID, d.Task, d.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
}

// Package file implements the file analysis command.
package file

import (
	"github.com/spf13/cobra"

	"github.com/tphakala/soundwatch-go/internal/analysis"
	"github.com/tphakala/soundwatch-go/internal/conf"
)

// Command creates a new file command for analyzing a single audio file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.wav]",
		Short: "Analyze an audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			return analysis.FileAnalysis(cmd.Context(), settings)
		},
	}

	return cmd
}

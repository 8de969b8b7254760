// Package realtime implements the realtime listening command.
package realtime

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/soundwatch-go/internal/analysis"
	"github.com/tphakala/soundwatch-go/internal/conf"
	"github.com/tphakala/soundwatch-go/internal/errors"
)

// Command creates a new command for realtime audio analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Listen for acoustic events in realtime",
		Long:  "Start analyzing incoming audio in realtime, looking for fire alarms, doorbells and baby crying.",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := analysis.RealtimeAnalysis(settings)
			return describeCaptureError(err)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
	}

	return cmd
}

// describeCaptureError prefixes session start failures with actionable hints
// per the capture error taxonomy.
func describeCaptureError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.IsCaptureUnavailable(err):
		return fmt.Errorf("no audio capture device available, connect a microphone and retry: %w", err)
	case errors.IsCapturePermissionDenied(err):
		return fmt.Errorf("audio capture permission denied, grant microphone access and retry: %w", err)
	case errors.IsCaptureUnsupported(err):
		return fmt.Errorf("audio capture is not supported on this host: %w", err)
	case errors.IsAnalysisInitFailed(err):
		return fmt.Errorf("analysis setup failed: %w", err)
	default:
		return err
	}
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Realtime.Audio.Source, "source", viper.GetString("realtime.audio.source"), "Audio capture source (\"sysdefault\", \"USB Audio\", etc.)")
	cmd.Flags().BoolVar(&settings.Realtime.Detection.FireAlarm, "fire", viper.GetBool("realtime.detection.firealarm"), "Detect fire alarm beeps")
	cmd.Flags().BoolVar(&settings.Realtime.Detection.Doorbell, "doorbell", viper.GetBool("realtime.detection.doorbell"), "Detect doorbell chimes")
	cmd.Flags().BoolVar(&settings.Realtime.Detection.BabyCry, "babycry", viper.GetBool("realtime.detection.babycry"), "Detect baby crying")
	cmd.Flags().BoolVar(&settings.Realtime.Telemetry.Enabled, "telemetry", viper.GetBool("realtime.telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Realtime.Telemetry.Listen, "listen", viper.GetString("realtime.telemetry.listen"), "Listen address and port of telemetry endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

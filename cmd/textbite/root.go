package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logger zerolog.Logger

func rootCmd() *cobra.Command {
	var loggingLevel string

	cmd := &cobra.Command{
		Use:   "textbite",
		Short: "Document segmentation pipeline",
		Long: `textbite segments scanned document pages into semantically coherent
text segments (bites): a geometric region detector, a graph
convolutional joiner over detected regions, and an NSP language-model
baseline, chained by file artifacts for batch processing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(loggingLevel)
			if err != nil {
				return err
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&loggingLevel, "logging-level", "WARNING",
		"log verbosity: ERROR, WARNING, INFO, or DEBUG")

	cmd.AddCommand(
		detectCmd(),
		graphsCmd(),
		trainCmd(),
		inferCmd(),
		finetuneLMCmd(),
		evaluateCmd(),
	)
	return cmd
}

func parseLevel(s string) (zerolog.Level, error) {
	switch strings.ToUpper(s) {
	case "ERROR":
		return zerolog.ErrorLevel, nil
	case "WARNING":
		return zerolog.WarnLevel, nil
	case "INFO":
		return zerolog.InfoLevel, nil
	case "DEBUG":
		return zerolog.DebugLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown logging level %q", s)
	}
}

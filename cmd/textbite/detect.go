package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/textbite/detect"
	"github.com/tsawler/textbite/reader"
)

func detectCmd() *cobra.Command {
	var (
		dataDir   string
		imagesDir string
		altosDir  string
		modelPath string
		saveDir   string
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect layout regions on document pages",
		Long: `Detect runs the region detector over every page found in the input
directories and writes one prediction JSON per page into the save
directory. Re-running over the same inputs overwrites the files with
byte-identical content.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// All inputs are checked before any output exists
			if err := reader.ValidateDirs(dataDir, imagesDir, altosDir); err != nil {
				return err
			}
			if err := reader.ValidateFiles(modelPath); err != nil {
				return err
			}

			scorer := detect.NewScorer()
			if modelPath != "" {
				loaded, err := detect.LoadScorer(modelPath)
				if err != nil {
					return err
				}
				scorer = loaded
			}
			detector := detect.NewDetector(scorer)

			files, err := reader.Discover(imagesDir, dataDir, altosDir)
			if err != nil {
				return err
			}

			processed := 0
			for _, f := range files {
				page, err := loadPageFiles(f)
				if err != nil {
					return err
				}
				if page == nil {
					logger.Debug().Str("page", f.ID).Msg("no layout or ALTO file, skipping")
					continue
				}

				regions, err := detector.DetectPage(page, nil)
				if err != nil {
					return fmt.Errorf("detecting page %s: %w", page.ID, err)
				}

				prediction := detect.NewPagePrediction(page, regions)
				if err := prediction.Write(saveDir); err != nil {
					return err
				}

				logger.Info().
					Str("page", page.ID).
					Int("regions", len(regions)).
					Msg("page detected")
				processed++
			}

			logger.Info().Int("pages", processed).Msg("detection finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "directory with PAGE XML layout files")
	cmd.Flags().StringVar(&imagesDir, "images", "", "directory with page scans")
	cmd.Flags().StringVar(&altosDir, "altos", "", "directory with ALTO files")
	cmd.Flags().StringVar(&modelPath, "model", "", "detector checkpoint to load")
	cmd.Flags().StringVar(&saveDir, "save", "", "output directory for prediction JSON")
	cmd.MarkFlagRequired("save")

	return cmd
}

package main

import (
	"fmt"
	"image"

	"github.com/spf13/cobra"

	"github.com/tsawler/textbite/detect"
	"github.com/tsawler/textbite/gcn"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/join"
	"github.com/tsawler/textbite/reader"
)

func inferCmd() *cobra.Command {
	var (
		xmlsDir   string
		imagesDir string
		yoloPath  string
		modelPath string
		saveDir   string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run the full segmentation pipeline",
		Long: `Infer runs detection, graph construction, and joining end-to-end over
every page and writes one bite JSON per page into the save directory.
Unlike training, nothing is precomputed: the detector and joiner
checkpoints are both loaded and applied in a single run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := reader.ValidateDirs(xmlsDir, imagesDir); err != nil {
				return err
			}
			if err := reader.ValidateFiles(yoloPath, modelPath); err != nil {
				return err
			}

			scorer := detect.NewScorer()
			if yoloPath != "" {
				loaded, err := detect.LoadScorer(yoloPath)
				if err != nil {
					return err
				}
				scorer = loaded
			}

			joinerModel := gcn.NewGraphModel()
			if modelPath != "" {
				loaded, err := gcn.LoadGraphModel(modelPath)
				if err != nil {
					return err
				}
				joinerModel = loaded
			} else {
				logger.Warn().Msg("no joiner checkpoint given, using untrained weights")
			}

			pipeline := join.NewPipeline(
				detect.NewDetector(scorer),
				graph.NewBuilder(),
				join.NewJoinerWithThreshold(joinerModel, threshold),
			)

			files, err := reader.Discover(imagesDir, xmlsDir, "")
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
					continue
				}

				var img image.Image
				if f.Image != "" {
					img, err = reader.LoadImage(f.Image)
					if err != nil {
						return err
					}
				}

				bites, err := pipeline.ProcessPage(page, img)
				if err != nil {
					return fmt.Errorf("segmenting page %s: %w", page.ID, err)
				}

				if err := join.SaveBites(saveDir, page.ID, bites); err != nil {
					return err
				}

				logger.Info().
					Str("page", page.ID).
					Int("bites", len(bites)).
					Msg("page segmented")
				processed++
			}

			fmt.Printf("Segmented %d pages into %s\n", processed, saveDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&xmlsDir, "xmls", "", "directory with PAGE XML layout files")
	cmd.Flags().StringVar(&imagesDir, "images", "", "directory with page scans")
	cmd.Flags().StringVar(&yoloPath, "yolo", "", "detector checkpoint")
	cmd.Flags().StringVar(&modelPath, "model", "", "joiner checkpoint")
	cmd.Flags().StringVar(&saveDir, "save", "", "output directory for bite JSON")
	cmd.Flags().Float64Var(&threshold, "threshold", join.DefaultThreshold, "edge merge threshold")
	cmd.MarkFlagRequired("xmls")
	cmd.MarkFlagRequired("save")

	return cmd
}

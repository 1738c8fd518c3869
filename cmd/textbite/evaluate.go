package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsawler/textbite/join"
	"github.com/tsawler/textbite/metrics"
	"github.com/tsawler/textbite/reader"
)

func evaluateCmd() *cobra.Command {
	var (
		hypothesis  string
		groundTruth string
		singlePage  bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score hypothesis bites against ground truth",
		Long: `Evaluate treats each page's bites as a clustering of its text lines and
scores hypothesis against ground truth with homogeneity, completeness,
and V-measure. By default both arguments are directories of per-page
bite JSON matched by filename; with --single-page they are two files
for one page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if singlePage {
				if err := reader.ValidateFiles(hypothesis, groundTruth); err != nil {
					return err
				}
				scores, err := scorePage(groundTruth, hypothesis)
				if err != nil {
					return err
				}
				fmt.Println(scores)
				return nil
			}

			if err := reader.ValidateDirs(hypothesis, groundTruth); err != nil {
				return err
			}

			gtFiles, err := biteFiles(groundTruth)
			if err != nil {
				return err
			}
			if len(gtFiles) == 0 {
				return fmt.Errorf("no ground-truth files in %s", groundTruth)
			}

			perPage, unmatched, err := scoreCorpus(groundTruth, hypothesis, gtFiles)
			if err != nil {
				return err
			}
			if unmatched > 0 {
				logger.Warn().Msgf("Results partial, %d (%.1f %%) pages have no hypothesis file",
					unmatched, 100*float64(unmatched)/float64(len(gtFiles)))
			}
			if len(perPage) == 0 {
				return fmt.Errorf("no hypothesis files in %s match the ground truth", hypothesis)
			}

			fmt.Println(metrics.AverageScores(perPage))
			return nil
		},
	}

	cmd.Flags().StringVarP(&hypothesis, "hypothesis", "s", "", "hypothesis bites (dir, or file with --single-page)")
	cmd.Flags().StringVarP(&groundTruth, "ground-truth", "g", "", "ground-truth bites (dir, or file with --single-page)")
	cmd.Flags().BoolVar(&singlePage, "single-page", false, "compare two single-page files")
	cmd.MarkFlagRequired("hypothesis")
	cmd.MarkFlagRequired("ground-truth")

	return cmd
}

// scoreCorpus scores every ground-truth page whose hypothesis file exists.
// Pages without one are skipped, not averaged in as zeros; their count comes
// back so the caller can report partial results.
func scoreCorpus(groundTruth, hypothesis string, gtFiles []string) ([]metrics.ClusterScores, int, error) {
	var perPage []metrics.ClusterScores
	unmatched := 0
	for _, name := range gtFiles {
		hypPath := filepath.Join(hypothesis, name)
		if _, err := os.Stat(hypPath); err != nil {
			unmatched++
			continue
		}

		scores, err := scorePage(filepath.Join(groundTruth, name), hypPath)
		if err != nil {
			return nil, 0, err
		}
		logger.Info().Str("page", name).Stringer("scores", scores).Msg("page scored")
		perPage = append(perPage, scores)
	}
	return perPage, unmatched, nil
}

// scorePage loads two bite files and compares their line clusterings.
func scorePage(truthPath, hypPath string) (metrics.ClusterScores, error) {
	truth, err := join.LoadBites(truthPath)
	if err != nil {
		return metrics.ClusterScores{}, err
	}
	hyp, err := join.LoadBites(hypPath)
	if err != nil {
		return metrics.ClusterScores{}, err
	}
	return metrics.CompareClusterings(join.LineGroups(truth), join.LineGroups(hyp)), nil
}

// biteFiles lists the JSON files in a directory, sorted by name.
func biteFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

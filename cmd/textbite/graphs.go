package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tsawler/textbite/alto"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/join"
	"github.com/tsawler/textbite/reader"
)

func graphsCmd() *cobra.Command {
	var (
		altosDir string
		bitesDir string
		savePath string
		kNearest int
	)

	cmd := &cobra.Command{
		Use:   "graphs",
		Short: "Build labeled training graphs from annotated pages",
		Long: `Graphs converts annotated pages into the joiner's training format: one
graph per page with candidate edges labeled from the ground-truth bite
annotations, all serialized into a single container file. Pages without
a matching annotation file get all-negative labels.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := reader.ValidateDirs(altosDir, bitesDir); err != nil {
				return err
			}

			pages, err := alto.OpenDir(altosDir)
			if err != nil {
				return err
			}

			builder := graph.NewBuilderWithConfig(graph.BuilderConfig{KNearest: kNearest})

			// Sorted page order keeps the artifact deterministic
			ids := make([]string, 0, len(pages))
			for id := range pages {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			var graphs []*graph.PageGraph
			for _, id := range ids {
				page := pages[id]
				if len(page.Regions) == 0 {
					logger.Debug().Str("page", id).Msg("no regions, skipping")
					continue
				}

				var groups [][]string
				bitesPath := filepath.Join(bitesDir, id+".json")
				if bites, err := join.LoadBites(bitesPath); err == nil {
					groups = join.LineGroups(bites)
				} else {
					logger.Warn().Str("page", id).Msg("no bite annotation, labels all negative")
				}

				g := builder.BuildLabeled(page, page.Regions, groups)
				graphs = append(graphs, g)
				logger.Info().
					Str("page", id).
					Int("nodes", g.NodeCount()).
					Int("edges", g.EdgeCount()).
					Msg("graph built")
			}

			if err := graph.SaveArtifact(savePath, graphs); err != nil {
				return err
			}
			fmt.Printf("Wrote %d graphs to %s\n", len(graphs), savePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&altosDir, "altos", "", "directory with ALTO files carrying regions")
	cmd.Flags().StringVar(&bitesDir, "bites", "", "directory with ground-truth bite JSON")
	cmd.Flags().StringVar(&savePath, "save", "", "output artifact file (.pkl)")
	cmd.Flags().IntVar(&kNearest, "k-nearest", graph.DefaultBuilderConfig().KNearest,
		"candidate edges per region")
	cmd.MarkFlagRequired("altos")
	cmd.MarkFlagRequired("bites")
	cmd.MarkFlagRequired("save")

	return cmd
}

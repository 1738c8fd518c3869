package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/textbite/config"
	"github.com/tsawler/textbite/gcn"
	"github.com/tsawler/textbite/graph"
	"github.com/tsawler/textbite/reader"
)

func trainCmd() *cobra.Command {
	var (
		configPath string
		trainPath  string
		valBook    string
		valDict    string
		valPeri    string
		saveDir    string

		layers         int
		hidden         int
		output         int
		dropout        float64
		threshold      float64
		lr             float64
		batchSize      int
		reportInterval int
		epochs         int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the graph joiner on precomputed graph artifacts",
		Long: `Train fits the joiner on a precomputed training artifact and scores the
three validation domains (book, dictionary, periodical) after every
epoch at the same threshold later used for inference. One checkpoint is
written per epoch.

An optional YAML config file supplies split paths and hyperparameters;
explicitly set flags win over file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			// Flags the user actually set override the file
			if cmd.Flags().Changed("train") {
				cfg.Splits.Train = trainPath
			}
			if cmd.Flags().Changed("val-book") {
				cfg.Splits.ValBook = valBook
			}
			if cmd.Flags().Changed("val-dict") {
				cfg.Splits.ValDict = valDict
			}
			if cmd.Flags().Changed("val-peri") {
				cfg.Splits.ValPeri = valPeri
			}
			if cmd.Flags().Changed("save") {
				cfg.SaveDir = saveDir
			}
			if cmd.Flags().Changed("layers") {
				cfg.Joiner.Layers = layers
			}
			if cmd.Flags().Changed("hidden-dim") {
				cfg.Joiner.HiddenDim = hidden
			}
			if cmd.Flags().Changed("output-dim") {
				cfg.Joiner.OutputDim = output
			}
			if cmd.Flags().Changed("dropout") {
				cfg.Joiner.Dropout = dropout
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Joiner.Threshold = threshold
			}
			if cmd.Flags().Changed("lr") {
				cfg.Joiner.LearningRate = lr
			}
			if cmd.Flags().Changed("batch-size") {
				cfg.Joiner.BatchSize = batchSize
			}
			if cmd.Flags().Changed("report-interval") {
				cfg.Joiner.ReportInterval = reportInterval
			}
			if cmd.Flags().Changed("epochs") {
				cfg.Joiner.Epochs = epochs
			}

			if cfg.Splits.Train == "" {
				return fmt.Errorf("no training artifact given (--train or config file)")
			}
			if err := reader.ValidateFiles(cfg.Splits.Train, cfg.Splits.ValBook,
				cfg.Splits.ValDict, cfg.Splits.ValPeri); err != nil {
				return err
			}

			trainGraphs, err := graph.LoadArtifact(cfg.Splits.Train)
			if err != nil {
				return err
			}

			val := make(map[string][]*graph.PageGraph)
			for name, path := range map[string]string{
				"val_book": cfg.Splits.ValBook,
				"val_dict": cfg.Splits.ValDict,
				"val_peri": cfg.Splits.ValPeri,
			} {
				if path == "" {
					continue
				}
				graphs, err := graph.LoadArtifact(path)
				if err != nil {
					return err
				}
				val[name] = graphs
			}

			model := gcn.NewGraphModelWithConfig(gcn.Config{
				InputDim:  graph.FeatureDim,
				HiddenDim: cfg.Joiner.HiddenDim,
				OutputDim: cfg.Joiner.OutputDim,
				Layers:    cfg.Joiner.Layers,
				Dropout:   cfg.Joiner.Dropout,
				Seed:      42,
			})

			trainer := gcn.NewTrainer(model, gcn.TrainerConfig{
				Epochs:         cfg.Joiner.Epochs,
				LearningRate:   cfg.Joiner.LearningRate,
				BatchSize:      cfg.Joiner.BatchSize,
				ReportInterval: cfg.Joiner.ReportInterval,
				Threshold:      cfg.Joiner.Threshold,
				SaveDir:        cfg.SaveDir,
				Seed:           42,
			}, logger)

			if err := trainer.Train(cmd.Context(), trainGraphs, val); err != nil {
				return err
			}
			fmt.Printf("Trained %d epochs on %d graphs, checkpoints in %s\n",
				cfg.Joiner.Epochs, len(trainGraphs), cfg.SaveDir)
			return nil
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&configPath, "config", "", "YAML pipeline config file")
	cmd.Flags().StringVar(&trainPath, "train", "", "training graph artifact")
	cmd.Flags().StringVar(&valBook, "val-book", "", "book validation artifact")
	cmd.Flags().StringVar(&valDict, "val-dict", "", "dictionary validation artifact")
	cmd.Flags().StringVar(&valPeri, "val-peri", "", "periodical validation artifact")
	cmd.Flags().StringVar(&saveDir, "save", defaults.SaveDir, "checkpoint output directory")
	cmd.Flags().IntVarP(&layers, "layers", "l", defaults.Joiner.Layers, "graph convolution layers")
	cmd.Flags().IntVarP(&hidden, "hidden-dim", "n", defaults.Joiner.HiddenDim, "hidden layer width")
	cmd.Flags().IntVarP(&output, "output-dim", "o", defaults.Joiner.OutputDim, "embedding width")
	cmd.Flags().Float64VarP(&dropout, "dropout", "d", defaults.Joiner.Dropout, "dropout rate")
	cmd.Flags().Float64Var(&threshold, "threshold", defaults.Joiner.Threshold, "validation merge threshold")
	cmd.Flags().Float64Var(&lr, "lr", defaults.Joiner.LearningRate, "learning rate")
	cmd.Flags().IntVar(&batchSize, "batch-size", defaults.Joiner.BatchSize, "graphs per optimizer step")
	cmd.Flags().IntVar(&reportInterval, "report-interval", defaults.Joiner.ReportInterval, "batches between progress logs")
	cmd.Flags().IntVar(&epochs, "epochs", defaults.Joiner.Epochs, "training epochs")

	return cmd
}

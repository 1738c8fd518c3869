package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/textbite/lm"
	"github.com/tsawler/textbite/reader"
)

func finetuneLMCmd() *cobra.Command {
	var (
		dataDir   string
		modelPath string
		saveDir   string
		lr        float64
		epochs    int
		batchSize int
		maxVocab  int
	)

	cmd := &cobra.Command{
		Use:   "finetune-lm",
		Short: "Finetune the NSP language-model baseline",
		Long: `Finetune-lm trains the next-segment-prediction baseline on segment
pairs. The data directory is scanned for split files: names starting
with "train" form the training set, names starting with "val" the
validation set; there is no separate validation flag. The checkpoint
with the best validation F1 is kept alongside one checkpoint per
epoch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := reader.ValidateDirs(dataDir); err != nil {
				return err
			}
			if err := reader.ValidateFiles(modelPath); err != nil {
				return err
			}

			train, val, err := lm.DiscoverSplits(dataDir)
			if err != nil {
				return err
			}
			logger.Info().
				Int("train", len(train)).
				Int("val", len(val)).
				Msg("splits loaded")

			// The tokenizer vocabulary always comes from the training split
			// so continued runs see the same IDs
			texts := make([]string, 0, 2*len(train))
			for _, s := range train {
				texts = append(texts, s.First, s.Second)
			}
			tokenizer := lm.NewTokenizer()
			tokenizer.Fit(texts, maxVocab)

			var model *lm.NSPModel
			if modelPath != "" {
				model, err = lm.LoadNSPModel(modelPath)
				if err != nil {
					return err
				}
			} else {
				model = lm.NewNSPModel(lm.DefaultNSPConfig(tokenizer.VocabSize()))
			}

			cfg := lm.DefaultFinetuneConfig()
			cfg.LearningRate = lr
			cfg.Epochs = epochs
			cfg.BatchSize = batchSize
			cfg.SaveDir = saveDir

			finetuner := lm.NewFinetuner(model, tokenizer, cfg, logger)
			bestPath, err := finetuner.Finetune(cmd.Context(), train, val)
			if err != nil {
				return err
			}

			fmt.Printf("Best checkpoint: %s\n", bestPath)
			return nil
		},
	}

	defaults := lm.DefaultFinetuneConfig()
	cmd.Flags().StringVar(&dataDir, "data", "", "directory with train*/val* sample files")
	cmd.Flags().StringVar(&modelPath, "model", "", "checkpoint to continue from")
	cmd.Flags().StringVar(&saveDir, "save", defaults.SaveDir, "checkpoint output directory")
	cmd.Flags().Float64Var(&lr, "lr", defaults.LearningRate, "learning rate")
	cmd.Flags().IntVar(&epochs, "epochs", defaults.Epochs, "training epochs")
	cmd.Flags().IntVar(&batchSize, "batch-size", defaults.BatchSize, "samples per optimizer step")
	cmd.Flags().IntVar(&maxVocab, "max-vocab", 30000, "vocabulary size limit")
	cmd.MarkFlagRequired("data")

	return cmd
}

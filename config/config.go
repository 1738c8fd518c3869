// Package config loads the optional YAML pipeline configuration.
//
// The file names the graph artifact splits and the joiner hyperparameters
// for a training run, so batch jobs can check one file into the experiment
// directory instead of carrying a long flag list. CLI flags always win over
// file values; the file only fills in what the flags leave unset.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/textbite/join"
)

// Splits names the graph artifact file for each data split.
type Splits struct {
	Train   string `yaml:"train"`
	ValBook string `yaml:"val_book"`
	ValDict string `yaml:"val_dict"`
	ValPeri string `yaml:"val_peri"`
}

// Joiner holds the joiner training hyperparameters.
type Joiner struct {
	Layers         int     `yaml:"layers"`
	HiddenDim      int     `yaml:"hidden_dim"`
	OutputDim      int     `yaml:"output_dim"`
	Dropout        float64 `yaml:"dropout"`
	Threshold      float64 `yaml:"threshold"`
	LearningRate   float64 `yaml:"learning_rate"`
	BatchSize      int     `yaml:"batch_size"`
	ReportInterval int     `yaml:"report_interval"`
	Epochs         int     `yaml:"epochs"`
}

// Config is the root of the pipeline configuration file.
type Config struct {
	Splits  Splits `yaml:"splits"`
	Joiner  Joiner `yaml:"joiner"`
	SaveDir string `yaml:"save_dir"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Joiner: Joiner{
			Layers:         3,
			HiddenDim:      128,
			OutputDim:      128,
			Dropout:        0.0,
			Threshold:      join.DefaultThreshold,
			LearningRate:   5e-3,
			BatchSize:      64,
			ReportInterval: 50,
			Epochs:         10,
		},
		SaveDir: "models",
	}
}

// Load reads a YAML configuration file over the defaults. Unknown keys are
// rejected so a typo in an experiment file fails loudly instead of silently
// training with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

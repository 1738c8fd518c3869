package lm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tsawler/textbite/checkpoint"
)

// FinetuneConfig holds the NSP finetuning hyperparameters.
type FinetuneConfig struct {
	// Epochs is the number of passes over the training samples (default: 2)
	Epochs int

	// LearningRate for Adam (default: 1e-3)
	LearningRate float64

	// WeightDecay is the decoupled L2 penalty applied at each step
	// (default: 1e-4)
	WeightDecay float64

	// BatchSize is the number of samples per optimizer step (default: 32)
	BatchSize int

	// ClipNorm rescales gradients whose global norm exceeds it
	// (default: 1.0)
	ClipNorm float64

	// EvalInterval is how many batches between validation passes
	// (default: 100)
	EvalInterval int

	// SaveDir receives the per-epoch and best checkpoints
	SaveDir string

	// Seed drives batch shuffling (default: 42)
	Seed int64
}

// DefaultFinetuneConfig returns sensible default configuration
func DefaultFinetuneConfig() FinetuneConfig {
	return FinetuneConfig{
		Epochs:       2,
		LearningRate: 1e-3,
		WeightDecay:  1e-4,
		BatchSize:    32,
		ClipNorm:     1.0,
		EvalInterval: 100,
		SaveDir:      "models",
		Seed:         42,
	}
}

// Finetuner runs the NSP training loop.
type Finetuner struct {
	config    FinetuneConfig
	model     *NSPModel
	tokenizer *Tokenizer
	logger    zerolog.Logger
}

// NewFinetuner creates a finetuner for the given model and tokenizer.
func NewFinetuner(model *NSPModel, tokenizer *Tokenizer, config FinetuneConfig, logger zerolog.Logger) *Finetuner {
	if config.Epochs < 1 {
		config.Epochs = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	if config.EvalInterval < 1 {
		config.EvalInterval = 100
	}
	return &Finetuner{config: config, model: model, tokenizer: tokenizer, logger: logger}
}

// Stats aggregates NSP classification quality.
type Stats struct {
	Loss      float64
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// Finetune trains the model. The loss is binary cross-entropy summed over
// each batch, gradients are clipped to ClipNorm, and validation runs every
// EvalInterval batches. The checkpoint with the best validation F1 is kept
// alongside one checkpoint per epoch; the best path is returned.
func (f *Finetuner) Finetune(ctx context.Context, train, val []Sample) (string, error) {
	if len(train) == 0 {
		return "", fmt.Errorf("lm: no training samples")
	}

	encoded := f.encodeAll(train)
	valEncoded := f.encodeAll(val)

	opt := newNSPAdam(f.config.LearningRate, f.config.WeightDecay, f.model)
	rng := rand.New(rand.NewSource(f.config.Seed))
	order := make([]int, len(encoded))
	for i := range order {
		order[i] = i
	}

	bestF1 := math.Inf(-1)
	bestPath := filepath.Join(f.config.SaveDir, checkpoint.Name(ModelName, Role, 0))
	batches := 0

	for epoch := 1; epoch <= f.config.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for start := 0; start < len(order); start += f.config.BatchSize {
			if err := ctx.Err(); err != nil {
				return "", err
			}

			end := start + f.config.BatchSize
			if end > len(order) {
				end = len(order)
			}

			grads := newNSPGrads(f.model.Config.EmbeddingDim)
			var batchLoss float64
			for _, idx := range order[start:end] {
				s := encoded[idx]
				batchLoss += f.model.accumulate(grads, s.first, s.second, s.label)
			}

			if f.config.ClipNorm > 0 {
				if n := grads.norm(); n > f.config.ClipNorm {
					grads.scale(f.config.ClipNorm / n)
				}
			}
			opt.update(f.model, grads)
			batches++

			if batches%f.config.EvalInterval == 0 {
				stats := f.evaluate(valEncoded)
				f.logger.Info().
					Int("epoch", epoch).
					Int("batch", batches).
					Float64("batch_loss", batchLoss).
					Float64("val_f1", stats.F1).
					Msg("finetune progress")

				if len(valEncoded) > 0 && stats.F1 > bestF1 {
					bestF1 = stats.F1
					if err := f.model.Save(bestPath); err != nil {
						return "", fmt.Errorf("saving best checkpoint: %w", err)
					}
				}
			}
		}

		stats := f.evaluate(valEncoded)
		f.logger.Info().
			Int("epoch", epoch).
			Float64("val_loss", stats.Loss).
			Float64("val_f1", stats.F1).
			Msg("epoch complete")

		path := filepath.Join(f.config.SaveDir, checkpoint.Name(ModelName, Role, epoch))
		if err := f.model.Save(path); err != nil {
			return "", fmt.Errorf("saving epoch %d checkpoint: %w", epoch, err)
		}

		if len(valEncoded) > 0 && stats.F1 > bestF1 {
			bestF1 = stats.F1
			if err := f.model.Save(bestPath); err != nil {
				return "", fmt.Errorf("saving best checkpoint: %w", err)
			}
		}
	}

	// Without a validation set the final weights are the best we know
	if len(valEncoded) == 0 {
		if err := f.model.Save(bestPath); err != nil {
			return "", fmt.Errorf("saving final checkpoint: %w", err)
		}
	}
	return bestPath, nil
}

// Evaluate scores the model on a sample set at threshold 0.5.
func (f *Finetuner) Evaluate(samples []Sample) Stats {
	return f.evaluate(f.encodeAll(samples))
}

type encodedSample struct {
	first  []int
	second []int
	label  float64
}

func (f *Finetuner) encodeAll(samples []Sample) []encodedSample {
	encoded := make([]encodedSample, len(samples))
	for i, s := range samples {
		encoded[i] = encodedSample{
			first:  f.tokenizer.Encode(s.First),
			second: f.tokenizer.Encode(s.Second),
			label:  s.Label,
		}
	}
	return encoded
}

func (f *Finetuner) evaluate(samples []encodedSample) Stats {
	var stats Stats
	if len(samples) == 0 {
		return stats
	}

	var tp, fp, fn, tn int
	for _, s := range samples {
		logit := f.model.Logit(s.first, s.second)
		stats.Loss += bceWithLogits(logit, s.label)

		predicted := logit >= 0
		actual := s.label >= 0.5
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		default:
			tn++
		}
	}

	total := float64(len(samples))
	stats.Loss /= total
	stats.Accuracy = float64(tp+tn) / total
	if tp+fp > 0 {
		stats.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		stats.Recall = float64(tp) / float64(tp+fn)
	}
	if stats.Precision+stats.Recall > 0 {
		stats.F1 = 2 * stats.Precision * stats.Recall / (stats.Precision + stats.Recall)
	}
	return stats
}

// nspAdam is Adam with decoupled weight decay over the NSP parameters.
// Embedding moments are kept sparsely; only rows touched by a batch update.
type nspAdam struct {
	lr          float64
	weightDecay float64
	beta1       float64
	beta2       float64
	eps         float64
	step        int

	embM  map[int][]float64
	embV  map[int][]float64
	headM []float64
	headV []float64
	biasM float64
	biasV float64
}

func newNSPAdam(lr, weightDecay float64, model *NSPModel) *nspAdam {
	return &nspAdam{
		lr:          lr,
		weightDecay: weightDecay,
		beta1:       0.9,
		beta2:       0.999,
		eps:         1e-8,
		embM:        make(map[int][]float64),
		embV:        make(map[int][]float64),
		headM:       make([]float64, len(model.Head)),
		headV:       make([]float64, len(model.Head)),
	}
}

func (a *nspAdam) update(model *NSPModel, grads *nspGrads) {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	adamStep := func(w, g, m, v float64) (float64, float64, float64) {
		m = a.beta1*m + (1-a.beta1)*g
		v = a.beta2*v + (1-a.beta2)*g*g
		w -= a.lr * (m / c1 / (math.Sqrt(v/c2) + a.eps))
		w -= a.lr * a.weightDecay * w
		return w, m, v
	}

	for id, row := range grads.embeddings {
		m, ok := a.embM[id]
		if !ok {
			m = make([]float64, len(row))
			a.embM[id] = m
		}
		v, ok := a.embV[id]
		if !ok {
			v = make([]float64, len(row))
			a.embV[id] = v
		}
		emb := model.Embeddings[id]
		for j, g := range row {
			emb[j], m[j], v[j] = adamStep(emb[j], g, m[j], v[j])
		}
	}

	for j, g := range grads.head {
		model.Head[j], a.headM[j], a.headV[j] = adamStep(model.Head[j], g, a.headM[j], a.headV[j])
	}
	model.Bias, a.biasM, a.biasV = adamStep(model.Bias, grads.bias, a.biasM, a.biasV)
}

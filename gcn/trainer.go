package gcn

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/tsawler/textbite/checkpoint"
	"github.com/tsawler/textbite/graph"
)

// DefaultThreshold is the edge probability above which two regions count as
// joined. Training-time validation and inference share this one value so
// reported validation numbers describe the operating point actually used;
// join.DefaultThreshold aliases it for the merge stage.
const DefaultThreshold = 0.71

// TrainerConfig holds training hyperparameters for the joiner.
type TrainerConfig struct {
	// Epochs is the number of passes over the training split (default: 10)
	Epochs int

	// LearningRate for Adam (default: 5e-3)
	LearningRate float64

	// BatchSize is the number of graphs per optimizer step (default: 64)
	BatchSize int

	// ReportInterval is how many batches between progress log lines
	// (default: 50)
	ReportInterval int

	// Threshold used for validation metrics. It must match the threshold
	// used at inference for the reported numbers to be meaningful
	// (default: DefaultThreshold)
	Threshold float64

	// SaveDir receives one checkpoint per epoch; created if absent
	SaveDir string

	// Seed drives batch shuffling (default: 42)
	Seed int64
}

// DefaultTrainerConfig returns sensible default configuration
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Epochs:         10,
		LearningRate:   5e-3,
		BatchSize:      64,
		ReportInterval: 50,
		Threshold:      DefaultThreshold,
		SaveDir:        "models",
		Seed:           42,
	}
}

// Trainer runs the joiner training loop.
type Trainer struct {
	config TrainerConfig
	model  *GraphModel
	logger zerolog.Logger
}

// NewTrainer creates a trainer for the given model.
func NewTrainer(model *GraphModel, config TrainerConfig, logger zerolog.Logger) *Trainer {
	if config.Epochs < 1 {
		config.Epochs = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	if config.ReportInterval < 1 {
		config.ReportInterval = 50
	}
	return &Trainer{config: config, model: model, logger: logger}
}

// Train fits the model on the training graphs, evaluating each validation
// split after every epoch and writing one checkpoint per epoch. The context
// cancels between batches.
func (t *Trainer) Train(ctx context.Context, train []*graph.PageGraph, val map[string][]*graph.PageGraph) error {
	if len(train) == 0 {
		return fmt.Errorf("gcn: no training graphs")
	}

	opt := newAdam(t.config.LearningRate, t.model.weights)
	rng := rand.New(rand.NewSource(t.config.Seed))
	order := make([]int, len(train))
	for i := range order {
		order[i] = i
	}

	valNames := make([]string, 0, len(val))
	for name := range val {
		valNames = append(valNames, name)
	}
	sort.Strings(valNames)

	for epoch := 1; epoch <= t.config.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		var epochLoss float64
		var epochGraphs int
		var batchLoss float64
		accum := zeroLike(t.model.weights)
		inBatch := 0
		batches := 0

		for _, idx := range order {
			if err := ctx.Err(); err != nil {
				return err
			}

			loss, grads, err := t.model.lossAndGrad(train[idx])
			if err != nil {
				return fmt.Errorf("training on graph %s: %w", train[idx].PageID, err)
			}
			if grads == nil {
				continue
			}

			for l, g := range grads {
				accum[l].Add(accum[l], g)
			}
			batchLoss += loss
			epochLoss += loss
			inBatch++
			epochGraphs++

			if inBatch == t.config.BatchSize {
				t.step(opt, accum, inBatch)
				batches++
				if batches%t.config.ReportInterval == 0 {
					t.logger.Info().
						Int("epoch", epoch).
						Int("batch", batches).
						Float64("loss", batchLoss/float64(inBatch)).
						Msg("training progress")
				}
				accum = zeroLike(t.model.weights)
				batchLoss = 0
				inBatch = 0
			}
		}

		if inBatch > 0 {
			t.step(opt, accum, inBatch)
		}

		if epochGraphs > 0 {
			epochLoss /= float64(epochGraphs)
		}
		log := t.logger.Info().
			Int("epoch", epoch).
			Float64("train_loss", epochLoss)
		for _, name := range valNames {
			stats, err := t.model.Evaluate(val[name], t.config.Threshold)
			if err != nil {
				return fmt.Errorf("evaluating split %s: %w", name, err)
			}
			log = log.
				Float64(name+"_loss", stats.Loss).
				Float64(name+"_f1", stats.F1)
		}
		log.Msg("epoch complete")

		path := filepath.Join(t.config.SaveDir, checkpoint.Name(ModelName, Role, epoch))
		if err := t.model.Save(path); err != nil {
			return fmt.Errorf("saving epoch %d checkpoint: %w", epoch, err)
		}
	}

	return nil
}

// step averages the accumulated gradients over the batch and applies one
// Adam update.
func (t *Trainer) step(opt *adam, accum []*mat.Dense, batchGraphs int) {
	scale := 1 / float64(batchGraphs)
	for _, g := range accum {
		g.Scale(scale, g)
	}
	opt.update(t.model.weights, accum)
}

// zeroLike allocates zero matrices shaped like the given weights.
func zeroLike(weights []*mat.Dense) []*mat.Dense {
	out := make([]*mat.Dense, len(weights))
	for i, w := range weights {
		rows, cols := w.Dims()
		out[i] = mat.NewDense(rows, cols, nil)
	}
	return out
}

// adam is the Adam optimizer with bias correction.
type adam struct {
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	step   int
	moment []*mat.Dense
	veloc  []*mat.Dense
}

func newAdam(lr float64, weights []*mat.Dense) *adam {
	return &adam{
		lr:     lr,
		beta1:  0.9,
		beta2:  0.999,
		eps:    1e-8,
		moment: zeroLike(weights),
		veloc:  zeroLike(weights),
	}
}

func (a *adam) update(weights, grads []*mat.Dense) {
	a.step++
	c1 := 1 - math.Pow(a.beta1, float64(a.step))
	c2 := 1 - math.Pow(a.beta2, float64(a.step))

	for l, w := range weights {
		g := grads[l]
		m := a.moment[l]
		v := a.veloc[l]

		rows, cols := w.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				gij := g.At(i, j)
				mij := a.beta1*m.At(i, j) + (1-a.beta1)*gij
				vij := a.beta2*v.At(i, j) + (1-a.beta2)*gij*gij
				m.Set(i, j, mij)
				v.Set(i, j, vij)

				mhat := mij / c1
				vhat := vij / c2
				w.Set(i, j, w.At(i, j)-a.lr*mhat/(math.Sqrt(vhat)+a.eps))
			}
		}
	}
}

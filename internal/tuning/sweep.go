package tuning

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/gis-hub/landcover-classifier-poc/internal/forest"
	"github.com/gis-hub/landcover-classifier-poc/internal/properties"
	"github.com/gis-hub/landcover-classifier-poc/internal/sampling"
)

// ErrInsufficientData aborts a sweep that has nothing to train or score on.
// No partial results are returned in that case.
var ErrInsufficientData = errors.New("insufficient data: empty train or test set")

// Candidate is one hyperparameter trial. The trained model is discarded after
// scoring; only the tree count is needed for the final retrain.
type Candidate struct {
	TreeCount int
	Accuracy  float64
	Matrix    *ConfusionMatrix
}

func toVectors(examples []sampling.Example) ([][]float64, []int) {
	vectors := make([][]float64, len(examples))
	classes := make([]int, len(examples))
	for i, example := range examples {
		vectors[i] = example.Features
		classes[i] = example.Class
	}
	return vectors, classes
}

// Sweep trains one classifier per candidate tree count on the train set and
// scores each against the test set. Every candidate is fully evaluated, in
// parallel, and the result preserves the input order. An empty train or test
// set fails the whole sweep.
func Sweep(train, test []sampling.Example, cfg properties.RunConfig) ([]Candidate, error) {
	if len(train) == 0 || len(test) == 0 {
		return nil, fmt.Errorf("%w: %d train, %d test examples", ErrInsufficientData, len(train), len(test))
	}

	trainVectors, trainClasses := toVectors(train)
	numClasses := len(properties.ClassNames)

	candidates := make([]Candidate, len(cfg.TreeCounts))
	errs := make([]error, len(cfg.TreeCounts))

	var mu sync.Mutex
	wp := workerpool.New(runtime.NumCPU())
	for i, treeCount := range cfg.TreeCounts {
		index, trees := i, treeCount
		wp.Submit(func() {
			model, err := forest.Train(trainVectors, trainClasses, numClasses, forest.Config{
				Trees: trees,
				Seed:  cfg.Seed,
			})
			if err != nil {
				errs[index] = fmt.Errorf("training %d trees: %w", trees, err)
				return
			}

			matrix := NewConfusionMatrix(numClasses)
			for _, example := range test {
				matrix.Add(example.Class, model.Classify(example.Features))
			}

			candidate := Candidate{
				TreeCount: trees,
				Accuracy:  matrix.Accuracy(),
				Matrix:    matrix,
			}
			mu.Lock()
			candidates[index] = candidate
			fmt.Printf("Candidate %d trees: accuracy %.4f on %d test examples\n", trees, candidate.Accuracy, matrix.Total())
			mu.Unlock()
		})
	}
	wp.StopWait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return candidates, nil
}

package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData yields two well-separated clusters labelled 0 and 1.
func separableData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	vectors := make([][]float64, n)
	classes := make([]int, n)
	for i := range vectors {
		class := i % 2
		offset := float64(class) * 10
		vectors[i] = []float64{
			offset + rng.Float64(),
			offset + rng.Float64(),
			offset + rng.Float64(),
		}
		classes[i] = class
	}
	return vectors, classes
}

func TestTrainLearnsSeparableData(t *testing.T) {
	vectors, classes := separableData(200, 1)

	model, err := Train(vectors, classes, 2, Config{Trees: 20, Seed: 42})
	require.NoError(t, err)
	assert.Equal(t, 20, model.Trees())

	for i, vector := range vectors {
		assert.Equal(t, classes[i], model.Classify(vector), "example %d", i)
	}

	// Points far inside each cluster classify correctly too.
	assert.Equal(t, 0, model.Classify([]float64{0.5, 0.5, 0.5}))
	assert.Equal(t, 1, model.Classify([]float64{10.5, 10.5, 10.5}))
}

func TestTrainIsDeterministicForASeed(t *testing.T) {
	vectors, classes := separableData(100, 3)
	probes := [][]float64{
		{0.2, 0.9, 0.4},
		{9.8, 10.2, 10.9},
		{5.0, 5.0, 5.0},
	}

	a, err := Train(vectors, classes, 2, Config{Trees: 15, Seed: 7})
	require.NoError(t, err)
	b, err := Train(vectors, classes, 2, Config{Trees: 15, Seed: 7})
	require.NoError(t, err)

	for _, probe := range probes {
		assert.Equal(t, a.Classify(probe), b.Classify(probe))
	}
}

func TestTrainValidatesInput(t *testing.T) {
	_, err := Train(nil, nil, 2, Config{Trees: 5})
	assert.Error(t, err)

	_, err = Train([][]float64{{1}}, []int{0, 1}, 2, Config{Trees: 5})
	assert.Error(t, err)

	_, err = Train([][]float64{{1}}, []int{0}, 2, Config{Trees: 0})
	assert.Error(t, err)
}

func TestClassifyTieGoesToLowestClass(t *testing.T) {
	// A forest of two trees trained on single-class data each votes its own
	// class; the tie resolves to the lower code.
	f := &Forest{
		trees: []*node{
			{class: 3},
			{class: 1},
		},
		numClasses: 8,
	}
	assert.Equal(t, 1, f.Classify([]float64{0}))
}

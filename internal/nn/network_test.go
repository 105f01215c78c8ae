// File: internal/nn/network_test.go
package nn

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tactician/internal/config"
)

func sampleFeatures() []float64 {
	f := make([]float64, InputSize)
	for i := range f {
		f[i] = float64(i%7) / 7
	}
	return f
}

func TestPredict(t *testing.T) {
	n := NewSeeded(42, 0.01)

	probs, err := n.Predict(sampleFeatures())
	require.NoError(t, err)
	require.Len(t, probs, OutputSize)

	sum := 0.0
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	t.Run("zero input is valid", func(t *testing.T) {
		_, err := n.Predict(make([]float64, InputSize))
		assert.NoError(t, err)
	})

	t.Run("wrong width is rejected", func(t *testing.T) {
		_, err := n.Predict(make([]float64, InputSize-1))
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("non-finite input is reported", func(t *testing.T) {
		f := sampleFeatures()
		f[0] = math.NaN()
		_, err := n.Predict(f)
		assert.ErrorIs(t, err, ErrNonFinite)
	})
}

func TestSeededIsDeterministic(t *testing.T) {
	a := NewSeeded(7, 0.01)
	b := NewSeeded(7, 0.01)
	if diff := cmp.Diff(a.Layers(), b.Layers()); diff != "" {
		t.Fatalf("same seed produced different weights (-a +b):\n%s", diff)
	}

	c := NewSeeded(8, 0.01)
	assert.NotEqual(t, a.Layers()[0].Weights[0], c.Layers()[0].Weights[0])
}

func TestTrainMovesTowardTarget(t *testing.T) {
	n := NewSeeded(42, 0.05)
	features := sampleFeatures()
	target, err := Target(3, 1.0)
	require.NoError(t, err)

	before, err := n.Predict(features)
	require.NoError(t, err)

	firstLoss, err := n.Train(features, target)
	require.NoError(t, err)
	var lastLoss float64
	for i := 0; i < 20; i++ {
		lastLoss, err = n.Train(features, target)
		require.NoError(t, err)
	}
	assert.Less(t, lastLoss, firstLoss)

	after, err := n.Predict(features)
	require.NoError(t, err)
	assert.Greater(t, after[3], before[3])
}

func TestTrainShapeErrors(t *testing.T) {
	n := NewSeeded(1, 0.01)
	_, err := n.Train(make([]float64, 3), make([]float64, OutputSize))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	_, err = n.Train(make([]float64, InputSize), make([]float64, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTarget(t *testing.T) {
	tgt, err := Target(0, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 0.8, tgt[0])
	assert.Len(t, tgt, OutputSize)

	_, err = Target(OutputSize, 1)
	assert.ErrorIs(t, err, ErrUnknownActionIndex)
	_, err = Target(-1, 1)
	assert.ErrorIs(t, err, ErrUnknownActionIndex)
}

func TestConcurrentPredictAndTrain(t *testing.T) {
	n := NewSeeded(3, 0.01)
	features := sampleFeatures()
	target, _ := Target(5, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := n.Predict(features)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := n.Train(features, target)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

// -- Weights file --

func TestSaveAndLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	n := NewSeeded(11, 0.01)
	require.NoError(t, n.Save(path))

	layers, err := LoadLayers(path)
	require.NoError(t, err)
	loaded, err := NewFromLayers(layers, 0.01)
	require.NoError(t, err)

	want, _ := n.Predict(sampleFeatures())
	got, _ := loaded.Predict(sampleFeatures())
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestLoadLayersErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLayers(filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, ErrWeightsMissing)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"layers":[{"weights":[[1,2]],"biases":[0]}]}`), 0o644))
	_, err = LoadLayers(bad)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	garbled := filepath.Join(dir, "garbled.json")
	require.NoError(t, os.WriteFile(garbled, []byte(`{"layers":`), 0o644))
	_, err = LoadLayers(garbled)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)
	base := config.ScorerConfig{Seed: 42, LearningRate: 0.01}

	t.Run("seeded without path", func(t *testing.T) {
		n, err := New(base, logger)
		require.NoError(t, err)
		assert.Equal(t, NewSeeded(42, 0.01).Layers(), n.Layers())
	})

	t.Run("missing file falls back when optional", func(t *testing.T) {
		cfg := base
		cfg.WeightsPath = filepath.Join(t.TempDir(), "none.json")
		n, err := New(cfg, logger)
		require.NoError(t, err)
		assert.NotNil(t, n)
	})

	t.Run("missing file fails when required", func(t *testing.T) {
		cfg := base
		cfg.WeightsPath = filepath.Join(t.TempDir(), "none.json")
		cfg.RequireWeights = true
		_, err := New(cfg, logger)
		assert.ErrorIs(t, err, ErrWeightsMissing)
	})

	t.Run("required without path fails", func(t *testing.T) {
		cfg := base
		cfg.RequireWeights = true
		_, err := New(cfg, logger)
		assert.ErrorIs(t, err, ErrWeightsMissing)
	})

	t.Run("loads configured file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "w.json")
		require.NoError(t, NewSeeded(99, 0.01).Save(path))
		cfg := base
		cfg.WeightsPath = path
		n, err := New(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, NewSeeded(99, 0.01).Layers(), n.Layers())
	})
}

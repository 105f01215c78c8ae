// File: internal/nn/weights.go
package nn

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/internal/config"
)

// weightsFile is the on-disk layout: {"layers":[{"weights":[[...]],"biases":[...]}]}.
type weightsFile struct {
	Layers []Layer `json:"layers"`
}

// LoadLayers reads and shape-checks a weights file.
func LoadLayers(path string) ([]Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrWeightsMissing, path)
		}
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	var wf weightsFile
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to decode weights file %s: %w", path, err)
	}
	if err := validateShape(wf.Layers); err != nil {
		return nil, fmt.Errorf("weights file %s: %w", path, err)
	}
	return wf.Layers, nil
}

// Save writes the current weights in the format LoadLayers reads.
func (n *Network) Save(path string) error {
	data, err := json.Marshal(weightsFile{Layers: n.Layers()})
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write weights file: %w", err)
	}
	return nil
}

// New builds the scorer described by cfg. A configured weights file wins;
// without one the network is seeded. A missing file only fails when
// RequireWeights is set.
func New(cfg config.ScorerConfig, logger *zap.Logger) (*Network, error) {
	log := logger.Named("nn")
	if cfg.WeightsPath == "" {
		if cfg.RequireWeights {
			return nil, fmt.Errorf("%w: scorer.require_weights is set but no weights_path is configured", ErrWeightsMissing)
		}
		log.Info("No weights file configured, using seeded initialization.", zap.Int64("seed", cfg.Seed))
		return NewSeeded(cfg.Seed, cfg.LearningRate), nil
	}

	layers, err := LoadLayers(cfg.WeightsPath)
	switch {
	case err == nil:
		log.Info("Loaded scorer weights.", zap.String("path", cfg.WeightsPath))
		return NewFromLayers(layers, cfg.LearningRate)
	case errors.Is(err, ErrWeightsMissing) && !cfg.RequireWeights:
		log.Warn("Weights file not found, falling back to seeded initialization.",
			zap.String("path", cfg.WeightsPath), zap.Int64("seed", cfg.Seed))
		return NewSeeded(cfg.Seed, cfg.LearningRate), nil
	default:
		return nil, err
	}
}

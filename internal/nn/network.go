// File: internal/nn/network.go
package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// InputSize is the width of the encoded decision state.
const InputSize = 50

// OutputSize is one probability per canonical action type.
const OutputSize = schemas.ActionTypeCount

// Architecture lists the fixed layer widths, input first.
var Architecture = []int{InputSize, 128, 64, 32, OutputSize}

var (
	ErrWeightsMissing     = errors.New("weights file not found")
	ErrShapeMismatch      = errors.New("shape does not match network architecture")
	ErrUnknownActionIndex = errors.New("action index outside output layer")
	ErrNonFinite          = errors.New("non-finite value in network")
)

// Layer is one dense layer. Weights is indexed [output][input].
type Layer struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

func (l Layer) inputs() int {
	if len(l.Weights) == 0 {
		return 0
	}
	return len(l.Weights[0])
}

// Network is the fixed feed-forward scorer: ReLU hidden layers and a softmax
// output. Inference takes a read lock and training the write lock, so the two
// never interleave on the same weights.
type Network struct {
	mu           sync.RWMutex
	layers       []Layer
	learningRate float64
}

// NewSeeded builds a network with He-initialized weights drawn from seed.
func NewSeeded(seed int64, learningRate float64) *Network {
	rng := rand.New(rand.NewSource(seed))
	layers := make([]Layer, len(Architecture)-1)
	for i := range layers {
		in, out := Architecture[i], Architecture[i+1]
		scale := math.Sqrt(2.0 / float64(in))
		w := make([][]float64, out)
		for o := range w {
			w[o] = make([]float64, in)
			for j := range w[o] {
				w[o][j] = rng.NormFloat64() * scale
			}
		}
		layers[i] = Layer{Weights: w, Biases: make([]float64, out)}
	}
	return &Network{layers: layers, learningRate: learningRate}
}

// NewFromLayers wraps pre-trained layers after checking their shapes.
func NewFromLayers(layers []Layer, learningRate float64) (*Network, error) {
	if err := validateShape(layers); err != nil {
		return nil, err
	}
	return &Network{layers: cloneLayers(layers), learningRate: learningRate}, nil
}

func validateShape(layers []Layer) error {
	if len(layers) != len(Architecture)-1 {
		return fmt.Errorf("%w: got %d layers, want %d", ErrShapeMismatch, len(layers), len(Architecture)-1)
	}
	for i, l := range layers {
		in, out := Architecture[i], Architecture[i+1]
		if len(l.Weights) != out || len(l.Biases) != out {
			return fmt.Errorf("%w: layer %d has %d outputs, want %d", ErrShapeMismatch, i, len(l.Weights), out)
		}
		for o, row := range l.Weights {
			if len(row) != in {
				return fmt.Errorf("%w: layer %d row %d has %d inputs, want %d", ErrShapeMismatch, i, o, len(row), in)
			}
		}
	}
	return nil
}

func cloneLayers(src []Layer) []Layer {
	out := make([]Layer, len(src))
	for i, l := range src {
		w := make([][]float64, len(l.Weights))
		for o, row := range l.Weights {
			w[o] = append([]float64(nil), row...)
		}
		out[i] = Layer{Weights: w, Biases: append([]float64(nil), l.Biases...)}
	}
	return out
}

// Layers returns a deep copy of the current weights.
func (n *Network) Layers() []Layer {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return cloneLayers(n.layers)
}

// Predict returns the softmax distribution over the canonical action types.
func (n *Network) Predict(features []float64) ([]float64, error) {
	if len(features) != InputSize {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), InputSize)
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	acts := n.forward(features)
	probs := acts[len(acts)-1]
	if !allFinite(probs) {
		return nil, ErrNonFinite
	}
	return append([]float64(nil), probs...), nil
}

// forward returns the activations of every layer, input included. The last
// entry is the softmax output. Callers must hold the lock.
func (n *Network) forward(input []float64) [][]float64 {
	acts := make([][]float64, 0, len(n.layers)+1)
	acts = append(acts, input)
	x := input
	for i, l := range n.layers {
		z := make([]float64, len(l.Weights))
		for o, row := range l.Weights {
			sum := l.Biases[o]
			for j, w := range row {
				sum += w * x[j]
			}
			z[o] = sum
		}
		if i == len(n.layers)-1 {
			z = softmax(z)
		} else {
			for o := range z {
				z[o] = relu(z[o])
			}
		}
		acts = append(acts, z)
		x = z
	}
	return acts
}

// Train runs one SGD step of softmax cross-entropy against target and
// returns the loss measured before the update.
func (n *Network) Train(features, target []float64) (float64, error) {
	if len(features) != InputSize {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(features), InputSize)
	}
	if len(target) != OutputSize {
		return 0, fmt.Errorf("%w: got %d targets, want %d", ErrShapeMismatch, len(target), OutputSize)
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	acts := n.forward(features)
	probs := acts[len(acts)-1]
	if !allFinite(probs) {
		return 0, ErrNonFinite
	}

	loss := 0.0
	delta := make([]float64, OutputSize)
	for i, p := range probs {
		delta[i] = p - target[i]
		if target[i] > 0 {
			loss -= target[i] * math.Log(math.Max(p, 1e-12))
		}
	}

	for li := len(n.layers) - 1; li >= 0; li-- {
		l := n.layers[li]
		in := acts[li]

		// Propagate before the weights of this layer change.
		var prev []float64
		if li > 0 {
			prev = make([]float64, l.inputs())
			for o, row := range l.Weights {
				for j, w := range row {
					prev[j] += w * delta[o]
				}
			}
			for j := range prev {
				if in[j] <= 0 {
					prev[j] = 0
				}
			}
		}

		for o, row := range l.Weights {
			g := n.learningRate * delta[o]
			for j := range row {
				row[j] -= g * in[j]
			}
			l.Biases[o] -= g
		}
		delta = prev
	}
	return loss, nil
}

// Target builds the training target for one action: value at the action's
// canonical index and zero elsewhere.
func Target(index int, value float64) ([]float64, error) {
	if index < 0 || index >= OutputSize {
		return nil, fmt.Errorf("%w: %d", ErrUnknownActionIndex, index)
	}
	t := make([]float64, OutputSize)
	t[index] = value
	return t, nil
}

func relu(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		if v > maxZ {
			maxZ = v
		}
	}
	sum := 0.0
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// File: internal/replay/sink.go
package replay

import (
	"fmt"
	"io"
	"sync"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/tactician/internal/decision"
)

// Sink receives every decision the runner makes.
type Sink interface {
	Write(res *decision.Result) error
}

// JSONLSink writes one JSON object per decision.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLSink encodes decisions onto w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{enc: json.NewEncoder(w)}
}

// Write implements Sink. The encoder terminates each record with a newline.
func (s *JSONLSink) Write(res *decision.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode decision %s: %w", res.ID, err)
	}
	return nil
}

// DiscardSink drops every decision.
type DiscardSink struct{}

// Write implements Sink.
func (DiscardSink) Write(*decision.Result) error { return nil }

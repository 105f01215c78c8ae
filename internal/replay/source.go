// File: internal/replay/source.go
package replay

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/hpcloud/tail"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/tactician/api/schemas"
)

// Source produces frames in capture order. Stream sends every frame to out
// and returns when the input is exhausted or ctx is done. It never closes out.
type Source interface {
	Stream(ctx context.Context, out chan<- *schemas.Frame) error
}

// FileSource reads one JSON frame per line. In follow mode it keeps reading
// as a capture process appends to the file, until ctx is cancelled.
type FileSource struct {
	path   string
	follow bool
	logger *zap.Logger

	frames    atomic.Int64
	malformed atomic.Int64
}

// NewFileSource creates a source over path.
func NewFileSource(path string, follow bool, logger *zap.Logger) *FileSource {
	return &FileSource{
		path:   path,
		follow: follow,
		logger: logger.Named("frame_source").With(zap.String("path", path), zap.Bool("follow", follow)),
	}
}

// Frames is the number of frames decoded so far.
func (s *FileSource) Frames() int64 { return s.frames.Load() }

// Malformed is the number of non-empty lines that failed to decode.
func (s *FileSource) Malformed() int64 { return s.malformed.Load() }

// Stream implements Source.
func (s *FileSource) Stream(ctx context.Context, out chan<- *schemas.Frame) error {
	if s.follow {
		return s.streamFollow(ctx, out)
	}
	return s.streamFile(ctx, out)
}

func (s *FileSource) streamFile(ctx context.Context, out chan<- *schemas.Frame) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open frames file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if err := s.emit(ctx, line, lineNo, out); err != nil {
				return err
			}
		}
		if errors.Is(readErr, io.EOF) {
			s.logger.Info("Frames file exhausted.",
				zap.Int64("frames", s.Frames()), zap.Int64("malformed", s.Malformed()))
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read frames file: %w", readErr)
		}
	}
}

func (s *FileSource) streamFollow(ctx context.Context, out chan<- *schemas.Frame) error {
	t, err := tail.TailFile(s.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail frames file: %w", err)
	}
	defer func() {
		_ = t.Stop()
		t.Cleanup()
	}()

	s.logger.Info("Following frames file.")
	lineNo := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				s.logger.Info("Frames tailer channel closed.")
				return t.Err()
			}
			if line.Err != nil {
				s.logger.Warn("Error reading from frames file", zap.Error(line.Err))
				continue
			}
			lineNo++
			if err := s.emit(ctx, []byte(line.Text), lineNo, out); err != nil {
				return err
			}
		}
	}
}

// emit decodes one line and sends it. Malformed lines are logged and skipped.
func (s *FileSource) emit(ctx context.Context, line []byte, lineNo int, out chan<- *schemas.Frame) error {
	frame, err := DecodeFrame(line)
	if errors.Is(err, errBlankLine) {
		return nil
	}
	if err != nil {
		s.malformed.Add(1)
		s.logger.Warn("Skipping malformed frame line.", zap.Int("line", lineNo), zap.Error(err))
		return nil
	}
	if frame.ID == "" {
		frame.ID = fmt.Sprintf("line-%d", lineNo)
	}
	s.frames.Add(1)

	select {
	case out <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var errBlankLine = errors.New("blank line")

// DecodeFrame parses one JSON-lines record.
func DecodeFrame(line []byte) (*schemas.Frame, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errBlankLine
	}
	var frame schemas.Frame
	if err := json.Unmarshal(line, &frame); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return &frame, nil
}

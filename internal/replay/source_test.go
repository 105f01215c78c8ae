// File: internal/replay/source_test.go
package replay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/tactician/api/schemas"
)

const sampleFrames = `{"id":"f-1","width":2400,"height":1080,"recorded":{"context":{"resources":{"health":15},"in_safe_zone":true},"game_type":"battle_royale"}}

not json at all
{"width":2400,"height":1080,"recorded":{"weapon":{"type":"smg","ammo":2,"magazine_size":30}},"outcome":{"success":true,"reward":0.4}}
{"id":"f-4","recorded":{"failed":["context"]},"outcome":{"success":false,"reward":-0.3}}
`

func writeFrames(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func collect(t *testing.T, src Source) ([]*schemas.Frame, error) {
	t.Helper()
	out := make(chan *schemas.Frame)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		errc <- src.Stream(context.Background(), out)
	}()
	var frames []*schemas.Frame
	for f := range out {
		frames = append(frames, f)
	}
	return frames, <-errc
}

func TestFileSourceReadsFrames(t *testing.T) {
	defer goleak.VerifyNone(t)
	src := NewFileSource(writeFrames(t, sampleFrames), false, zaptest.NewLogger(t))

	frames, err := collect(t, src)
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, "f-1", frames[0].ID)
	h, ok := frames[0].Recorded.Context.Resource(schemas.ResourceHealth)
	assert.True(t, ok)
	assert.Equal(t, 15.0, h)
	assert.Equal(t, schemas.GameTypeBattleRoyale, frames[0].Recorded.GameType)

	assert.Equal(t, "line-4", frames[1].ID, "frames without an ID are named by line")
	require.NotNil(t, frames[1].Outcome)
	assert.True(t, frames[1].Outcome.Success)
	assert.Equal(t, []string{"context"}, frames[2].Recorded.Failed)

	assert.Equal(t, int64(3), src.Frames())
	assert.Equal(t, int64(1), src.Malformed())
}

func TestFileSourceWithoutTrailingNewline(t *testing.T) {
	src := NewFileSource(writeFrames(t, `{"id":"only"}`), false, zaptest.NewLogger(t))
	frames, err := collect(t, src)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "only", frames[0].ID)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.jsonl"), false, zaptest.NewLogger(t))
	_, err := collect(t, src)
	assert.ErrorContains(t, err, "failed to open frames file")
}

func TestFileSourceStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	src := NewFileSource(writeFrames(t, sampleFrames), false, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := src.Stream(ctx, make(chan *schemas.Frame))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSourceFollow(t *testing.T) {
	path := writeFrames(t, `{"id":"a"}`+"\n")
	src := NewFileSource(path, true, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan *schemas.Frame, 4)
	errc := make(chan error, 1)
	go func() { errc <- src.Stream(ctx, out) }()

	next := func() *schemas.Frame {
		select {
		case f := <-out:
			return f
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a followed frame")
			return nil
		}
	}
	assert.Equal(t, "a", next().ID)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"b"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "b", next().ID)

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("follow mode did not stop on cancel")
	}
}

func TestDecodeFrame(t *testing.T) {
	_, err := DecodeFrame([]byte("   \t"))
	assert.ErrorIs(t, err, errBlankLine)

	_, err = DecodeFrame([]byte(`{"id":`))
	assert.Error(t, err)

	frame, err := DecodeFrame([]byte(`  {"id":"x","captured_at":"2026-03-14T12:00:00Z"}  `))
	require.NoError(t, err)
	assert.Equal(t, "x", frame.ID)
	assert.True(t, strings.HasPrefix(frame.CapturedAt.String(), "2026-03-14 12:00:00"))
}

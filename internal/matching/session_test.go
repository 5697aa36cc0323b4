package matching

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/model"
)

func TestSessionLastSubmittedWins(t *testing.T) {
	var s Session
	assert.Equal(t, StateIdle, s.Snapshot().State)

	first := s.Begin()
	second := s.Begin()
	assert.Equal(t, StateScanning, s.Snapshot().State)

	newer := []Match{{Confidence: 90}}
	assert.True(t, s.Finish(second, newer, nil))

	// The older scan finishes late and is discarded.
	assert.False(t, s.Finish(first, []Match{{Confidence: 70}}, nil))

	snap := s.Snapshot()
	assert.Equal(t, StateDone, snap.State)
	assert.Equal(t, second, snap.Ticket)
	require.Len(t, snap.Matches, 1)
	assert.Equal(t, 90, snap.Matches[0].Confidence)
}

func TestSessionFinishTwice(t *testing.T) {
	var s Session
	tk := s.Begin()
	assert.True(t, s.Finish(tk, nil, errors.New("boom")))
	assert.False(t, s.Finish(tk, nil, nil))

	snap := s.Snapshot()
	assert.Equal(t, "boom", snap.Error)
	assert.NotNil(t, snap.Matches)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{uint8(255 - x*4), uint8(y * 5), 40, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestScannerRun(t *testing.T) {
	data := pngBytes(t)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	p, err := NewProbe(img)
	require.NoError(t, err)

	sc := &Scanner{
		Scorer: DefaultScorer(),
		Candidates: func(context.Context) ([]model.Item, error) {
			return []model.Item{approved("same", p.Full, p.Color)}, nil
		},
	}

	matches, err := sc.Run(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 100, matches[0].Confidence)

	_, err = sc.Run(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, imaging.ErrImageDecode)
}

func TestScannerStart(t *testing.T) {
	sc := &Scanner{
		Scorer: DefaultScorer(),
		Candidates: func(context.Context) ([]model.Item, error) {
			return nil, nil
		},
	}

	var s Session
	tk := sc.Start(context.Background(), &s, pngBytes(t))
	assert.Equal(t, uint64(1), tk)

	require.Eventually(t, func() bool {
		return s.Snapshot().State == StateDone
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, s.Snapshot().Matches)
}

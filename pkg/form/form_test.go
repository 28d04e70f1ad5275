package form

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Verdict
	}{
		{0, Poor},
		{0.29999, Poor},
		{0.3, Fair},
		{0.5, Fair},
		{0.69999, Fair},
		{0.7, Good},
		{0.9, Good},
		{1, Good},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerdictFor(tt.score), "score %v", tt.score)
	}
}

func TestVerdictText(t *testing.T) {
	for _, v := range []Verdict{Poor, Fair, Good} {
		b, err := v.MarshalText()
		require.NoError(t, err)

		var back Verdict
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, v, back)
	}
	assert.Equal(t, "Good form!", Good.Message())

	var v Verdict
	assert.Error(t, v.UnmarshalText([]byte("excellent")))
}

type recordingPredictor struct {
	scores []float64
	err    error
	batch  [][][]float64
}

func (p *recordingPredictor) Predict(_ context.Context, batch [][][]float64) ([]float64, error) {
	p.batch = batch
	return p.scores, p.err
}

var shape = window.Shape{Length: 3, Features: 6}

func fullWindow(t *testing.T) window.Window {
	vecs := make([]pose.FeatureVector, shape.Length)
	for i := range vecs {
		vecs[i] = make(pose.FeatureVector, shape.Features)
		vecs[i][0] = float64(i)
	}
	w, err := window.FromVectors(shape, vecs)
	require.NoError(t, err)
	return w
}

func TestAdapterShape(t *testing.T) {
	p := &recordingPredictor{scores: []float64{0.7}}
	a := NewAdapter(p, shape)

	verdict, score, err := a.Classify(context.Background(), fullWindow(t))
	require.NoError(t, err)
	assert.Equal(t, Good, verdict)
	assert.Equal(t, 0.7, score)

	require.Len(t, p.batch, 1)
	require.Len(t, p.batch[0], shape.Length)
	for i, row := range p.batch[0] {
		assert.Len(t, row, shape.Features)
		assert.Equal(t, float64(i), row[0])
	}
}

func TestAdapterRejectsWrongWindow(t *testing.T) {
	a := NewAdapter(&recordingPredictor{scores: []float64{0.5}}, shape)
	assert.Panics(t, func() {
		a.Classify(context.Background(), window.Window{})
	})
}

func TestAdapterErrors(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := NewAdapter(&recordingPredictor{err: boom}, shape).Classify(context.Background(), fullWindow(t))
	assert.True(t, errors.Is(err, boom))

	for _, scores := range [][]float64{nil, {0.1, 0.2}, {1.5}, {-0.1}, {math.NaN()}, {math.Inf(1)}} {
		_, _, err := NewAdapter(&recordingPredictor{scores: scores}, shape).Classify(context.Background(), fullWindow(t))
		assert.True(t, errors.Is(err, ErrBadScore), "%v", scores)
	}
}

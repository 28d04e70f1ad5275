package pose

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFrame struct{}

func (fakeFrame) Width() int  { return 640 }
func (fakeFrame) Height() int { return 480 }

type fakeEstimator struct {
	res Result
	err error
}

func (f fakeEstimator) Process(Frame) (Result, error) { return f.res, f.err }

func keypoints(n int) []Keypoint {
	pts := make([]Keypoint, n)
	for i := range pts {
		pts[i] = Keypoint{X: float64(i), Y: float64(i) + 0.1, Z: float64(i) + 0.2}
	}
	return pts
}

func TestExtractOrdering(t *testing.T) {
	ex := NewExtractor(fakeEstimator{res: Result{Detected: true, Keypoints: keypoints(3)}}, 3)

	vec, ok := ex.Extract(fakeFrame{})
	require.True(t, ok)
	assert.Equal(t, FeatureVector{0, 0.1, 0.2, 1, 1.1, 1.2, 2, 2.1, 2.2}, vec)
	assert.Equal(t, keypoints(3), vec.Keypoints())
}

func TestExtractMisses(t *testing.T) {
	tests := []struct {
		name string
		est  fakeEstimator
	}{
		{"not detected", fakeEstimator{res: Result{Detected: false, Keypoints: keypoints(3)}}},
		{"estimator error", fakeEstimator{err: errors.New("boom")}},
		{"partial landmarks", fakeEstimator{res: Result{Detected: true, Keypoints: keypoints(2)}}},
		{"too many landmarks", fakeEstimator{res: Result{Detected: true, Keypoints: keypoints(4)}}},
		{"nan coordinate", fakeEstimator{res: Result{Detected: true, Keypoints: []Keypoint{{}, {X: math.NaN()}, {}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, ok := NewExtractor(tt.est, 3).Extract(fakeFrame{})
			assert.False(t, ok)
			assert.Nil(t, vec)
		})
	}
}

func TestDecodeResult(t *testing.T) {
	res, err := DecodeResult([]byte(`{"detected":true,"keypoints":[[0.1,0.2,0.3],[0.4,0.5,-0.6]]}`))
	require.NoError(t, err)
	assert.True(t, res.Detected)
	assert.Equal(t, []Keypoint{{0.1, 0.2, 0.3}, {0.4, 0.5, -0.6}}, res.Keypoints)

	res, err = DecodeResult([]byte(`{"detected":false}`))
	require.NoError(t, err)
	assert.False(t, res.Detected)

	_, err = DecodeResult([]byte(`{"detected":true,"keypoints":[[0.1,0.2]]}`))
	assert.Error(t, err)

	_, err = DecodeResult([]byte(`not json`))
	assert.Error(t, err)
}

type fixedEncoder struct{}

func (fixedEncoder) Encode(Frame) ([]byte, error) { return []byte("jpeg"), nil }

func TestBridgeRoundTrip(t *testing.T) {
	script := `while read line; do
  if [ "$line" = "anBlZw==" ]; then
    echo '{"detected":true,"keypoints":[[0.5,0.5,0],[0.25,0.75,0.1]]}'
  else
    echo '{"detected":false}'
  fi
done`
	b, err := StartBridge(fixedEncoder{}, "sh", "-c", script)
	require.NoError(t, err)
	defer b.Close()

	ex := NewExtractor(b, 2)
	for i := 0; i < 3; i++ {
		vec, ok := ex.Extract(fakeFrame{})
		require.True(t, ok)
		assert.Equal(t, FeatureVector{0.5, 0.5, 0, 0.25, 0.75, 0.1}, vec)
	}
}

func TestBridgeHungHelperIsAMiss(t *testing.T) {
	b, err := StartBridge(fixedEncoder{}, "sh", "-c", `read line; exec sleep 30`)
	require.NoError(t, err)
	defer b.Close()
	b.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, ok := NewExtractor(b, 2).Extract(fakeFrame{})
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 10*time.Second)
}

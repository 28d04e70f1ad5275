package dataset

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"37", 37},
		{"0", 0},
		{"1:40", 100},
		{"01:05", 65},
		{"1:23:45", 5025},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"abc", "", "1:", ":40", "1:2:3:4", "-5", "1.5", "1:4a", " 37"} {
		_, err := ParseTimestamp(bad)
		assert.True(t, errors.Is(err, ErrMalformedTimestamp), "%q", bad)

		var terr *TimestampError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, bad, terr.Value)
	}
}

func TestLabelAt(t *testing.T) {
	segs := []Segment{{Start: 0, End: 10, Label: 1}, {Start: 5, End: 15, Label: 0}, {Start: 20, End: 30, Label: 0}}

	tests := []struct {
		ts      float64
		label   int
		covered bool
	}{
		{0, 1, true},
		{7, 1, true}, //overlap: first declared wins
		{10, 1, true},
		{10.5, 0, true},
		{15, 0, true},
		{17, 0, false},
		{20, 0, true},
		{30, 0, true},
		{30.01, 0, false},
	}
	for _, tt := range tests {
		label, ok := LabelAt(tt.ts, segs)
		assert.Equal(t, tt.covered, ok, "ts=%v", tt.ts)
		if ok {
			assert.Equal(t, tt.label, label, "ts=%v", tt.ts)
		}
	}

	_, ok := LabelAt(3, nil)
	assert.False(t, ok)
}

func TestDecodeManifestFormats(t *testing.T) {
	want := []Video{
		{Path: "good.mp4", Segments: []Segment{{Start: 37, End: 100, Label: 1}}},
		{Path: "bad.mp4", Segments: []Segment{{Start: 135, End: 165, Label: 0}, {Start: 3600, End: 5025, Label: 0}}},
	}

	docs := map[string]string{
		"json": `{"videos": [
			{"path": "good.mp4", "segments": [{"start": 37, "end": "1:40", "label": 1}]},
			{"path": "bad.mp4", "segments": [{"start": "2:15", "end": "2:45", "label": 0}, {"start": "1:00:00", "end": "1:23:45", "label": 0}]}
		]}`,
		"yaml": `
videos:
  - path: good.mp4
    segments:
      - {start: 37, end: "1:40", label: 1}
  - path: bad.mp4
    segments:
      - {start: "2:15", end: "2:45", label: 0}
      - {start: "1:00:00", end: "1:23:45", label: 0}
`,
		"toml": `
[[videos]]
path = "good.mp4"
[[videos.segments]]
start = 37
end = "1:40"
label = 1

[[videos]]
path = "bad.mp4"
[[videos.segments]]
start = "2:15"
end = "2:45"
label = 0
[[videos.segments]]
start = "1:00:00"
end = "1:23:45"
label = 0
`,
	}

	for format, doc := range docs {
		t.Run(format, func(t *testing.T) {
			m, err := DecodeManifest(strings.NewReader(doc), format)
			require.NoError(t, err)
			assert.Equal(t, want, m.Videos)
		})
	}
}

func TestDecodeManifestRejectsBadTiming(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(`{"videos":[{"path":"a.mp4","segments":[{"start":"abc","end":"1:00","label":1}]}]}`), "json")
	assert.True(t, errors.Is(err, ErrMalformedTimestamp))

	_, err = DecodeManifest(strings.NewReader(`{"videos":[{"path":"a.mp4","segments":[{"start":1.5,"end":3,"label":1}]}]}`), "json")
	assert.True(t, errors.Is(err, ErrMalformedTimestamp))

	_, err = DecodeManifest(strings.NewReader(`{"videos":[{"path":"a.mp4","segments":[{"start":1,"end":3,"label":2}]}]}`), "json")
	assert.True(t, errors.Is(err, ErrInvalidSegment))

	_, err = DecodeManifest(strings.NewReader(`{"videos":[{"path":"a.mp4","segments":[{"start":10,"end":3,"label":1}]}]}`), "json")
	assert.True(t, errors.Is(err, ErrInvalidSegment))
}

func TestDecodeSegments(t *testing.T) {
	segs, err := DecodeSegments(strings.NewReader(`[{"start":"0:05","end":12,"label":1}]`), "json")
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 5, End: 12, Label: 1}}, segs)

	segs, err = DecodeSegments(strings.NewReader("[[segments]]\nstart = 1\nend = 2\nlabel = 0\n"), "toml")
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 1, End: 2, Label: 0}}, segs)
}

func TestLoadManifestResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yml")
	require.NoError(t, os.WriteFile(path, []byte("videos:\n  - path: clips/a.mp4\n    segments: []\n  - path: /abs/b.mp4\n    segments: []\n"), 0644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clips/a.mp4"), m.Videos[0].Path)
	assert.Equal(t, "/abs/b.mp4", m.Videos[1].Path)

	_, err = LoadManifest(filepath.Join(dir, "manifest.ini"))
	assert.Error(t, err)
}

type fakeFrame struct{ index int }

func (fakeFrame) Width() int  { return 64 }
func (fakeFrame) Height() int { return 48 }

//fakeSource yields n frames at fps; estimates are keyed by frame index
type fakeSource struct {
	fps    float64
	n      int
	next   int
	closed bool
}

func (s *fakeSource) FPS() float64 { return s.fps }

func (s *fakeSource) Read() (pose.Frame, error) {
	if s.next >= s.n {
		return nil, io.EOF
	}
	s.next++
	return fakeFrame{index: s.next - 1}, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type indexEstimator struct {
	misses map[int]bool
}

func (e indexEstimator) Process(f pose.Frame) (pose.Result, error) {
	i := f.(fakeFrame).index
	if e.misses[i] {
		return pose.Result{}, nil
	}
	return pose.Result{Detected: true, Keypoints: []pose.Keypoint{{X: float64(i)}}}, nil
}

var testShape = window.Shape{Length: 4, Features: 3}

func TestProcessVideo(t *testing.T) {
	//10 fps, 3 seconds; only frames 0..10 (0s..1s) are labeled
	src := &fakeSource{fps: 10, n: 30}
	segs := []Segment{{Start: 0, End: 1, Label: 1}}
	ex := pose.NewExtractor(indexEstimator{misses: map[int]bool{5: true}}, 1)

	examples, stats, err := ProcessVideo(context.Background(), src, ex, segs, testShape)
	require.NoError(t, err)

	assert.Equal(t, 30, stats.Frames)
	assert.Equal(t, 11, stats.Labeled)
	assert.Equal(t, 1, stats.Misses)
	//frames 0..4 -> 2 windows, miss at 5, frames 6..10 -> 2 windows
	require.Len(t, examples, 4)
	assert.Equal(t, 4, stats.Examples)

	firsts := []float64{}
	for _, e := range examples {
		assert.Equal(t, 1, e.Label)
		firsts = append(firsts, e.Window.At(0)[0])
	}
	assert.Equal(t, []float64{0, 1, 6, 7}, firsts)
}

func TestProcessVideoUsesSourceFrameRate(t *testing.T) {
	segs := []Segment{{Start: 0, End: 1, Label: 1}}
	ex := pose.NewExtractor(indexEstimator{}, 1)

	//at 30 fps second 1 ends at frame 30 -> 31 labeled frames
	_, stats, err := ProcessVideo(context.Background(), &fakeSource{fps: 30, n: 60}, ex, segs, testShape)
	require.NoError(t, err)
	assert.Equal(t, 31, stats.Labeled)
	assert.Equal(t, 28, stats.Examples)

	_, _, err = ProcessVideo(context.Background(), &fakeSource{fps: 0, n: 60}, ex, segs, testShape)
	assert.True(t, errors.Is(err, ErrNoFrameRate))
}

func TestProcessVideoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ProcessVideo(ctx, &fakeSource{fps: 10, n: 10}, pose.NewExtractor(indexEstimator{}, 1), nil, testShape)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBuilderSkipsUnreadableVideos(t *testing.T) {
	var opened []*fakeSource
	open := func(path string) (Source, error) {
		if path == "missing.mp4" {
			return nil, os.ErrNotExist
		}
		s := &fakeSource{fps: 10, n: 20}
		opened = append(opened, s)
		return s, nil
	}
	b := NewBuilder(open, pose.NewExtractor(indexEstimator{}, 1), testShape)

	d, err := b.Build(context.Background(), Manifest{Videos: []Video{
		{Path: "missing.mp4", Segments: []Segment{{Start: 0, End: 1, Label: 1}}},
		{Path: "ok.mp4", Segments: []Segment{{Start: 0, End: 1, Label: 0}}},
	}})
	require.NoError(t, err)

	require.Len(t, d.Videos, 2)
	assert.NotEmpty(t, d.Videos[0].Error)
	assert.Empty(t, d.Videos[1].Error)
	assert.Len(t, d.Examples, 11-4+1)
	require.Len(t, opened, 1)
	assert.True(t, opened[0].closed)

	_, err = b.Build(context.Background(), Manifest{Videos: []Video{{Path: "missing.mp4"}}})
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func makeExamples(n int) []window.Example {
	out := make([]window.Example, n)
	for i := range out {
		vecs := make([]pose.FeatureVector, testShape.Length)
		for j := range vecs {
			vecs[j] = pose.FeatureVector{float64(i), float64(j), 0}
		}
		w, _ := window.FromVectors(testShape, vecs)
		out[i] = window.Example{Window: w, Label: i % 2}
	}
	return out
}

func TestSplit(t *testing.T) {
	examples := makeExamples(10)

	train, val := Split(examples, 0.2, 42)
	assert.Len(t, train, 8)
	assert.Len(t, val, 2)

	train2, val2 := Split(examples, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, val, val2)

	seen := map[float64]bool{}
	for _, e := range append(train, val...) {
		seen[e.Window.At(0)[0]] = true
	}
	assert.Len(t, seen, 10)

	train, val = Split(examples[:1], 0.2, 1)
	assert.Len(t, train, 1)
	assert.Empty(t, val)

	train, val = Split(nil, 0.2, 1)
	assert.Nil(t, train)
	assert.Nil(t, val)
}

func TestSaveLoad(t *testing.T) {
	d := &Dataset{ID: "abc", Shape: testShape, Examples: makeExamples(3), Videos: []VideoReport{{Path: "a.mp4"}}}

	dir, err := d.Save(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "dataset_abc", filepath.Base(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, d.ID, loaded.ID)
	assert.Equal(t, d.Shape, loaded.Shape)
	require.Len(t, loaded.Examples, 3)
	for i := range d.Examples {
		assert.Equal(t, d.Examples[i].Label, loaded.Examples[i].Label)
		assert.Equal(t, d.Examples[i].Window.Matrix(), loaded.Examples[i].Window.Matrix())
	}
}

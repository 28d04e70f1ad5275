package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
	"github.com/sirupsen/logrus"
)

//ErrNoFrameRate is returned for sources that cannot report their frames-per-second
var ErrNoFrameRate = errors.New("source reports no frame rate")

//Source yields a video's frames in capture order and io.EOF after the last one.
//A returned frame is only valid until the next Read.
type Source interface {
	FPS() float64
	Read() (pose.Frame, error)
	Close() error
}

//Stats summarizes one processed video
type Stats struct {
	Frames   int `json:"frames"`
	Labeled  int `json:"labeled"`
	Misses   int `json:"misses"`
	Examples int `json:"examples"`
}

//ProcessVideo walks src once and returns its overlapping (window, label) examples.
//A frame's time is its index divided by the source's own frame rate.
func ProcessVideo(ctx context.Context, src Source, ex *pose.Extractor, segments []Segment, shape window.Shape) ([]window.Example, Stats, error) {
	var stats Stats

	fps := src.FPS()
	if fps <= 0 {
		return nil, stats, ErrNoFrameRate
	}

	acc := window.NewAccumulator(shape)
	var examples []window.Example

	for frameIndex := 0; ; frameIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		frame, err := src.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("ProcessVideo: could not read frame %d, got '%w'", frameIndex, err)
		}
		stats.Frames++

		label, ok := LabelAt(float64(frameIndex)/fps, segments)
		if !ok {
			//frames outside every segment are not worth a pose estimate
			acc.Push(window.Observation{})
			continue
		}
		stats.Labeled++

		vec, detected := ex.Extract(frame)
		if !detected {
			stats.Misses++
		}

		if example, emitted := acc.Push(window.Observation{Vector: vec, Label: label, Labeled: true}); emitted {
			examples = append(examples, example)
		}
	}

	stats.Examples = len(examples)
	logrus.WithFields(logrus.Fields{
		"frames":   stats.Frames,
		"labeled":  stats.Labeled,
		"misses":   stats.Misses,
		"examples": stats.Examples,
	}).Debug("ProcessVideo: done")

	return examples, stats, nil
}

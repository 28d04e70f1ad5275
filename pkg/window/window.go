// Package window builds the fixed-shape frame windows the form classifier consumes.
//
// Two builders share the rule that only full windows leave the package:
//
//   - Accumulator (offline): slide-by-one over labeled frames. A detection miss, an
//     unlabeled frame or a label change discards everything accumulated so far.
//   - Ring (live): a drop-oldest buffer of the latest frames. Misses are the caller's
//     business; the live controller skips them and only empties the ring on stop/start.
//
// The asymmetry is intentional: offline windows must never mix ground truth, live windows
// should not lose history to a single flickering detection.
package window

import (
	"fmt"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
)

//Shape is the fixed geometry of every window: Length frames of Features numbers each
type Shape struct {
	Length   int
	Features int
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Length, s.Features)
}

//Window is an ordered run of exactly Shape.Length feature vectors, oldest first.
//Windows are only built inside this package (or validated by FromVectors) and never change after that.
type Window struct {
	vectors []pose.FeatureVector
}

//FromVectors validates vecs against shape and copies them into a Window
func FromVectors(shape Shape, vecs []pose.FeatureVector) (Window, error) {
	if len(vecs) != shape.Length {
		return Window{}, fmt.Errorf("FromVectors: got %d vectors, want %d", len(vecs), shape.Length)
	}
	for i, v := range vecs {
		if len(v) != shape.Features {
			return Window{}, fmt.Errorf("FromVectors: vector %d has %d features, want %d", i, len(v), shape.Features)
		}
	}
	return snapshot(vecs), nil
}

func snapshot(vecs []pose.FeatureVector) Window {
	out := make([]pose.FeatureVector, len(vecs))
	copy(out, vecs)
	return Window{vectors: out}
}

func (w Window) Len() int {
	return len(w.vectors)
}

//At returns the i-th vector, 0 being the oldest frame
func (w Window) At(i int) pose.FeatureVector {
	return w.vectors[i]
}

//Matrix copies the window into a [Length][Features] matrix
func (w Window) Matrix() [][]float64 {
	m := make([][]float64, len(w.vectors))
	for i, v := range w.vectors {
		m[i] = append([]float64(nil), v...)
	}
	return m
}

//Example is one training pair; the label holds for every frame of the window
type Example struct {
	Window Window
	Label  int
}

func checkVector(shape Shape, v pose.FeatureVector) {
	if len(v) != shape.Features {
		panic(fmt.Sprintf("window: feature vector has %d numbers, shape is %v", len(v), shape))
	}
}

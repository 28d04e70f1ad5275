package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//FileName is the file a saved dataset directory holds
const FileName = "dataset.json"

//ErrEmptyDataset is returned when no video produced a single full window
var ErrEmptyDataset = errors.New("dataset has no examples")

//VideoReport tells how one manifest entry went
type VideoReport struct {
	Path     string    `json:"path"`
	Segments []Segment `json:"segments"`
	Stats    Stats     `json:"stats"`
	Error    string    `json:"error,omitempty"`
}

//Dataset is the set of training examples built from a manifest
type Dataset struct {
	ID        string
	CreatedAt time.Time
	Shape     window.Shape
	Examples  []window.Example
	Videos    []VideoReport
}

type datasetFile struct {
	ID             string        `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	SequenceLength int           `json:"sequence_length"`
	Features       int           `json:"features"`
	Sequences      [][][]float64 `json:"sequences"`
	Labels         []int         `json:"labels"`
	Videos         []VideoReport `json:"videos"`
}

//Tensors returns the examples as an (n, SequenceLength, Features) array and its labels
func Tensors(examples []window.Example) ([][][]float64, []int) {
	x := make([][][]float64, len(examples))
	y := make([]int, len(examples))
	for i, ex := range examples {
		x[i] = ex.Window.Matrix()
		y[i] = ex.Label
	}
	return x, y
}

//Save writes the dataset into <root>/dataset_<id>/dataset.json and returns the directory
func (d *Dataset) Save(root string) (string, error) {
	dir := filepath.Join(root, "dataset_"+d.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("Save: could not create '%s', got '%w'", dir, err)
	}

	x, y := Tensors(d.Examples)
	file := datasetFile{
		ID:             d.ID,
		CreatedAt:      d.CreatedAt,
		SequenceLength: d.Shape.Length,
		Features:       d.Shape.Features,
		Sequences:      x,
		Labels:         y,
		Videos:         d.Videos,
	}

	f, err := os.Create(filepath.Join(dir, FileName))
	if err != nil {
		return "", fmt.Errorf("Save: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(file); err != nil {
		return "", fmt.Errorf("Save: could not encode dataset, got '%w'", err)
	}
	return dir, nil
}

//Load reads a dataset written by Save. path may be the dataset directory or the json file itself.
func Load(path string) (*Dataset, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	defer f.Close()

	var file datasetFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("Load: could not decode '%s', got '%w'", path, err)
	}
	if len(file.Sequences) != len(file.Labels) {
		return nil, fmt.Errorf("Load: %d sequences but %d labels", len(file.Sequences), len(file.Labels))
	}

	shape := window.Shape{Length: file.SequenceLength, Features: file.Features}
	d := &Dataset{ID: file.ID, CreatedAt: file.CreatedAt, Shape: shape, Videos: file.Videos}
	for i, seq := range file.Sequences {
		vecs := make([]pose.FeatureVector, len(seq))
		for j := range seq {
			vecs[j] = seq[j]
		}
		w, err := window.FromVectors(shape, vecs)
		if err != nil {
			return nil, fmt.Errorf("Load: sequence %d: %w", i, err)
		}
		d.Examples = append(d.Examples, window.Example{Window: w, Label: file.Labels[i]})
	}
	return d, nil
}

//Opener opens a video file as a Source
type Opener func(path string) (Source, error)

//Builder runs ProcessVideo over every manifest entry. Builds are serialized because pose
//estimators are not safe for concurrent use.
type Builder struct {
	open      Opener
	extractor *pose.Extractor
	shape     window.Shape
	mu        sync.Mutex
}

func NewBuilder(open Opener, extractor *pose.Extractor, shape window.Shape) *Builder {
	return &Builder{open: open, extractor: extractor, shape: shape}
}

//Build processes each video of m. A video that cannot be opened or read is reported and skipped;
//only cancellation aborts the whole build.
func (b *Builder) Build(ctx context.Context, m Manifest) (*Dataset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := &Dataset{ID: uuid.NewString(), CreatedAt: time.Now().UTC(), Shape: b.shape}
	log := logrus.WithField("dataset", d.ID)

	for _, v := range m.Videos {
		report := VideoReport{Path: v.Path, Segments: v.Segments}

		examples, stats, err := b.buildVideo(ctx, v)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if err != nil {
			log.WithField("video", v.Path).Errorf("Build: skipping video, got '%v'", err)
			report.Error = err.Error()
		}

		report.Stats = stats
		d.Examples = append(d.Examples, examples...)
		d.Videos = append(d.Videos, report)
		log.WithField("video", v.Path).Infof("Build: %d examples from %d frames", stats.Examples, stats.Frames)
	}

	if len(d.Examples) == 0 {
		return d, ErrEmptyDataset
	}
	return d, nil
}

func (b *Builder) buildVideo(ctx context.Context, v Video) ([]window.Example, Stats, error) {
	src, err := b.open(v.Path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("could not open '%s', got '%w'", v.Path, err)
	}
	defer src.Close()

	return ProcessVideo(ctx, src, b.extractor, v.Segments, b.shape)
}

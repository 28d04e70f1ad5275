package video

import (
	"errors"
	"fmt"
	"image"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/config"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"gocv.io/x/gocv"
)

//DNNEstimator runs a heatmap pose network (one output channel per landmark) through OpenCV's dnn module
type DNNEstimator struct {
	net       gocv.Net
	landmarks int
	size      image.Point
	detect    float32
	track     float32
	tracking  bool //previous frame had a person
}

//NewDNNEstimator loads the network from cfg.ModelPath
func NewDNNEstimator(cfg config.Pose, landmarks int) (*DNNEstimator, error) {
	net := gocv.ReadNet(cfg.ModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("NewDNNEstimator: could not load model '%s'", cfg.ModelPath)
	}

	return &DNNEstimator{
		net:       net,
		landmarks: landmarks,
		size:      image.Pt(cfg.InputWidth, cfg.InputHeight),
		detect:    float32(cfg.MinDetectionConfidence),
		track:     float32(cfg.MinTrackingConfidence),
	}, nil
}

//Process finds the peak of every landmark heatmap. A joint counts when its peak passes the detection
//threshold (or the tracking threshold while a person was seen on the previous frame). The person is
//detected when at least half the joints are found; the missing ones get the mean of the found ones.
func (e *DNNEstimator) Process(frame pose.Frame) (pose.Result, error) {
	mf, ok := frame.(MatFrame)
	if !ok {
		return pose.Result{}, errors.New("Process: frame is not an OpenCV matrix")
	}

	blob := gocv.BlobFromImage(mf.Mat, 1, e.size, gocv.NewScalar(127.5, 127.5, 127.5, 127.5), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	prob := e.net.Forward("")
	defer prob.Close()

	s := prob.Size()
	if len(s) != 4 || s[1] < e.landmarks {
		return pose.Result{}, fmt.Errorf("Process: unexpected network output %v", s)
	}
	h, w := s[2], s[3]

	data, err := prob.DataPtrFloat32()
	if err != nil {
		return pose.Result{}, fmt.Errorf("Process: %w", err)
	}

	threshold := e.detect
	if e.tracking {
		threshold = e.track
	}

	keypoints := make([]pose.Keypoint, e.landmarks)
	found := make([]bool, e.landmarks)
	var xSum, ySum float64
	foundCount := 0

	for i := 0; i < e.landmarks; i++ {
		heatmap := data[i*h*w : (i+1)*h*w]

		best, bestAt := float32(-1), 0
		for j, v := range heatmap {
			if v > best {
				best, bestAt = v, j
			}
		}
		if best < threshold {
			continue
		}

		keypoints[i] = pose.Keypoint{X: float64(bestAt%w) / float64(w), Y: float64(bestAt/w) / float64(h)}
		found[i] = true
		xSum += keypoints[i].X
		ySum += keypoints[i].Y
		foundCount++
	}

	if foundCount*2 < e.landmarks {
		e.tracking = false
		return pose.Result{}, nil
	}
	e.tracking = true

	avg := pose.Keypoint{X: xSum / float64(foundCount), Y: ySum / float64(foundCount)}
	for i := range keypoints {
		if !found[i] {
			keypoints[i] = avg
		}
	}

	return pose.Result{Detected: true, Keypoints: keypoints}, nil
}

func (e *DNNEstimator) Close() error {
	return e.net.Close()
}

package pose

import (
	"math"

	"github.com/sirupsen/logrus"
)

//Extractor enforces the per-frame contract on top of an Estimator: either a full vector of
//landmarks*3 numbers or a miss, never a partial vector and never an error.
type Extractor struct {
	estimator Estimator
	landmarks int
	log       *logrus.Entry
}

func NewExtractor(estimator Estimator, landmarks int) *Extractor {
	return &Extractor{
		estimator: estimator,
		landmarks: landmarks,
		log:       logrus.WithField("component", "extractor"),
	}
}

//Landmarks is the number of keypoints every successful extraction carries
func (e *Extractor) Landmarks() int {
	return e.landmarks
}

//Extract returns the frame's feature vector, or false when the frame yields no usable landmarks
func (e *Extractor) Extract(frame Frame) (FeatureVector, bool) {
	res, err := e.estimator.Process(frame)
	if err != nil {
		e.log.Warnf("Extract: estimator failed, got '%v'. Treating frame as a miss", err)
		return nil, false
	}

	if !res.Detected {
		return nil, false
	}

	if len(res.Keypoints) != e.landmarks {
		e.log.Debugf("Extract: expected %d keypoints, got %d", e.landmarks, len(res.Keypoints))
		return nil, false
	}

	for _, kp := range res.Keypoints {
		if !finite(kp.X) || !finite(kp.Y) || !finite(kp.Z) {
			e.log.Debug("Extract: non-finite keypoint coordinate")
			return nil, false
		}
	}

	return Flatten(res.Keypoints), true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

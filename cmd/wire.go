package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/classifier"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/config"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/form"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/pose"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/video"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/window"
	"github.com/sirupsen/logrus"
)

func shapeOf(c config.Config) window.Shape {
	return window.Shape{Length: c.Pipeline.SequenceLength, Features: c.Pipeline.FeatureCount()}
}

//newExtractor builds the configured pose back end. The returned func releases it.
func newExtractor(c config.Config) (*pose.Extractor, func() error, error) {
	var (
		est     pose.Estimator
		release func() error
	)

	switch c.Pose.Backend {
	case "dnn":
		dnn, err := video.NewDNNEstimator(c.Pose, c.Pipeline.Landmarks)
		if err != nil {
			return nil, nil, err
		}
		est, release = dnn, dnn.Close

	case "process":
		bridge, err := pose.StartBridge(video.JPEGEncoder{}, c.Pose.Python, c.Pose.Script,
			"--min-detection-confidence", strconv.FormatFloat(c.Pose.MinDetectionConfidence, 'f', -1, 64),
			"--min-tracking-confidence", strconv.FormatFloat(c.Pose.MinTrackingConfidence, 'f', -1, 64))
		if err != nil {
			return nil, nil, err
		}
		est, release = bridge, bridge.Close

	default:
		return nil, nil, fmt.Errorf("unknown pose backend '%s'", c.Pose.Backend)
	}

	return pose.NewExtractor(est, c.Pipeline.Landmarks), release, nil
}

//newAdapter builds the configured classifier back end. It returns a nil adapter when the
//model file is configured but missing, live sessions then run without verdicts.
func newAdapter(c config.Config) (*form.Adapter, func() error, error) {
	noop := func() error { return nil }

	if c.Classifier.ModelPath != "" {
		if _, err := os.Stat(c.Classifier.ModelPath); err != nil {
			logrus.Warnf("model '%s' not found, running without classification", c.Classifier.ModelPath)
			return nil, noop, nil
		}
	}

	switch c.Classifier.Backend {
	case "http":
		return form.NewAdapter(classifier.NewHTTP(c.Classifier.URL, c.Classifier.Timeout), shapeOf(c)), noop, nil

	case "process":
		p, err := classifier.StartProcess(c.Classifier.Python, c.Classifier.Script, c.Classifier.ModelPath,
			c.Pipeline.SequenceLength, c.Pipeline.FeatureCount())
		if err != nil {
			return nil, nil, err
		}
		return form.NewAdapter(p, shapeOf(c)), p.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown classifier backend '%s'", c.Classifier.Backend)
	}
}

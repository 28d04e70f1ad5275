package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "http:\n  port: \"9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Pipeline.SequenceLength)
	assert.Equal(t, 33, cfg.Pipeline.Landmarks)
	assert.Equal(t, 99, cfg.Pipeline.FeatureCount())
	assert.Equal(t, 0.5, cfg.Pose.MinDetectionConfidence)
	assert.Equal(t, 0.2, cfg.Dataset.ValidationSplit)
	assert.Equal(t, 60*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, "9090", cfg.HTTP.Port)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  sequence_length: 16
  landmarks: 13
pose:
  backend: dnn
classifier:
  timeout: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Pipeline.SequenceLength)
	assert.Equal(t, 39, cfg.Pipeline.FeatureCount())
	assert.Equal(t, "dnn", cfg.Pose.Backend)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PUSHUP_CLASSIFIER_URL", "http://model:9000")
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://model:9000", cfg.Classifier.URL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
	}{
		{"ok", "{}\n", true},
		{"zero length", "pipeline:\n  sequence_length: 0\n", false},
		{"negative landmarks", "pipeline:\n  landmarks: -1\n", false},
		{"confidence above one", "pose:\n  min_tracking_confidence: 1.5\n", false},
		{"split of one", "dataset:\n  validation_split: 1\n", false},
		{"unknown backend", "classifier:\n  backend: grpc\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

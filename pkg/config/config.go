package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//Pipeline holds the window geometry shared by the offline and live pipelines
type Pipeline struct {
	SequenceLength int `mapstructure:"sequence_length"`
	Landmarks      int `mapstructure:"landmarks"`
}

//FeatureCount is the length of one frame's feature vector (x,y,z per landmark)
func (p Pipeline) FeatureCount() int {
	return p.Landmarks * 3
}

type Pose struct {
	Backend                string  `mapstructure:"backend"` //"dnn" or "process"
	ModelPath              string  `mapstructure:"model_path"`
	Python                 string  `mapstructure:"python"`
	Script                 string  `mapstructure:"script"`
	MinDetectionConfidence float64 `mapstructure:"min_detection_confidence"`
	MinTrackingConfidence  float64 `mapstructure:"min_tracking_confidence"`
	InputWidth             int     `mapstructure:"input_width"`
	InputHeight            int     `mapstructure:"input_height"`
}

type Classifier struct {
	Backend   string        `mapstructure:"backend"` //"http" or "process"
	URL       string        `mapstructure:"url"`
	Python    string        `mapstructure:"python"`
	Script    string        `mapstructure:"script"`
	ModelPath string        `mapstructure:"model_path"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type Dataset struct {
	ValidationSplit float64 `mapstructure:"validation_split"`
	Seed            int64   `mapstructure:"seed"`
}

type Directory struct {
	Root   string `mapstructure:"root"`
	Source string `mapstructure:"source"`
	Ready  string `mapstructure:"ready"`
}

type HTTP struct {
	Port string `mapstructure:"port"`
}

type Live struct {
	Camera     int    `mapstructure:"camera"`
	WindowName string `mapstructure:"window_name"`
	FeedPort   string `mapstructure:"feed_port"`
}

type Redis struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

//Config is the whole application configuration. It is read once at start-up and handed by value to every component.
type Config struct {
	Pipeline   Pipeline   `mapstructure:"pipeline"`
	Pose       Pose       `mapstructure:"pose"`
	Classifier Classifier `mapstructure:"classifier"`
	Dataset    Dataset    `mapstructure:"dataset"`
	Directory  Directory  `mapstructure:"directory"`
	HTTP       HTTP       `mapstructure:"http"`
	Live       Live       `mapstructure:"live"`
	Redis      Redis      `mapstructure:"redis"`
	Log        Log        `mapstructure:"log"`
}

//EnvPrefix prefixes environment overrides, e.g. PUSHUP_CLASSIFIER_URL overrides classifier.url
const EnvPrefix = "PUSHUP"

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.sequence_length", 30)
	v.SetDefault("pipeline.landmarks", 33)

	v.SetDefault("pose.backend", "process")
	v.SetDefault("pose.python", "python3")
	v.SetDefault("pose.script", "scripts/pose_bridge.py")
	v.SetDefault("pose.min_detection_confidence", 0.5)
	v.SetDefault("pose.min_tracking_confidence", 0.5)
	v.SetDefault("pose.input_width", 368)
	v.SetDefault("pose.input_height", 368)

	v.SetDefault("classifier.backend", "http")
	v.SetDefault("classifier.url", "http://localhost:8500")
	v.SetDefault("classifier.python", "python3")
	v.SetDefault("classifier.script", "scripts/form_classifier.py")
	v.SetDefault("classifier.model_path", "models/saved/pushup_model.h5")
	v.SetDefault("classifier.timeout", 60*time.Second)

	v.SetDefault("dataset.validation_split", 0.2)
	v.SetDefault("dataset.seed", 42)

	v.SetDefault("directory.root", "data")
	v.SetDefault("directory.source", "data/source")
	v.SetDefault("directory.ready", "data/ready")

	v.SetDefault("http.port", "8080")

	v.SetDefault("live.camera", 0)
	v.SetDefault("live.window_name", "Push-up Form Analysis")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "pushup")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

//Load reads the config file (explicit path, or "config.*" in the working directory) on top of the defaults.
//A missing config file is not an error when no explicit path was given.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("Load: could not read config file, got '%w'", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("Load: could not decode config, got '%w'", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

//Validate rejects configurations the pipeline cannot run with
func (c Config) Validate() error {
	if c.Pipeline.SequenceLength <= 0 {
		return fmt.Errorf("pipeline.sequence_length must be positive, got %d", c.Pipeline.SequenceLength)
	}
	if c.Pipeline.Landmarks <= 0 {
		return fmt.Errorf("pipeline.landmarks must be positive, got %d", c.Pipeline.Landmarks)
	}
	for name, v := range map[string]float64{
		"pose.min_detection_confidence": c.Pose.MinDetectionConfidence,
		"pose.min_tracking_confidence":  c.Pose.MinTrackingConfidence,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	if c.Dataset.ValidationSplit < 0 || c.Dataset.ValidationSplit >= 1 {
		return fmt.Errorf("dataset.validation_split must be in [0,1), got %v", c.Dataset.ValidationSplit)
	}
	switch c.Pose.Backend {
	case "dnn", "process":
	default:
		return fmt.Errorf("pose.backend must be 'dnn' or 'process', got '%s'", c.Pose.Backend)
	}
	switch c.Classifier.Backend {
	case "http", "process":
	default:
		return fmt.Errorf("classifier.backend must be 'http' or 'process', got '%s'", c.Classifier.Backend)
	}
	return nil
}

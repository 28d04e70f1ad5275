package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//Video is one source clip and its ground-truth segments
type Video struct {
	Path     string    `json:"path"`
	Segments []Segment `json:"segments"`
}

//Manifest lists the clips a dataset is built from
type Manifest struct {
	Videos []Video
}

type rawVideo struct {
	Path     string       `json:"path" yaml:"path" toml:"path"`
	Segments []RawSegment `json:"segments" yaml:"segments" toml:"segments"`
}

type rawManifest struct {
	Videos []rawVideo `json:"videos" yaml:"videos" toml:"videos"`
}

type rawSegments struct {
	Segments []RawSegment `toml:"segments"`
}

//FormatOf maps a file extension to one of "json", "yaml" or "toml"
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("unsupported timing file extension '%s'", filepath.Ext(path))
	}
}

func decode(r io.Reader, format string, v interface{}) error {
	switch format {
	case "json":
		return json.NewDecoder(r).Decode(v)
	case "yaml":
		return yaml.NewDecoder(r).Decode(v)
	case "toml":
		_, err := toml.NewDecoder(r).Decode(v)
		return err
	default:
		return fmt.Errorf("unsupported format '%s'", format)
	}
}

//LoadManifest reads a manifest file. Relative video paths are resolved against the manifest's directory.
//Timing is validated here, so a malformed timestamp fails before any video is opened.
func LoadManifest(path string) (Manifest, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Manifest{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("LoadManifest: could not open '%s', got '%w'", path, err)
	}
	defer f.Close()

	m, err := DecodeManifest(f, format)
	if err != nil {
		return Manifest{}, fmt.Errorf("LoadManifest '%s': %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range m.Videos {
		if !filepath.IsAbs(m.Videos[i].Path) {
			m.Videos[i].Path = filepath.Join(base, m.Videos[i].Path)
		}
	}
	return m, nil
}

func DecodeManifest(r io.Reader, format string) (Manifest, error) {
	var raw rawManifest
	if err := decode(r, format, &raw); err != nil {
		return Manifest{}, fmt.Errorf("could not decode manifest, got '%w'", err)
	}

	m := Manifest{Videos: make([]Video, 0, len(raw.Videos))}
	for i, rv := range raw.Videos {
		if rv.Path == "" {
			return Manifest{}, fmt.Errorf("video %d: missing path", i)
		}
		segs, err := ParseSegments(rv.Segments)
		if err != nil {
			return Manifest{}, fmt.Errorf("video %d ('%s'): %w", i, rv.Path, err)
		}
		m.Videos = append(m.Videos, Video{Path: rv.Path, Segments: segs})
	}
	return m, nil
}

//DecodeSegments reads one video's segment list: a top-level list for json/yaml, [[segments]] tables for toml
func DecodeSegments(r io.Reader, format string) ([]Segment, error) {
	var raw []RawSegment
	if format == "toml" {
		var wrapped rawSegments
		if err := decode(r, format, &wrapped); err != nil {
			return nil, fmt.Errorf("could not decode segments, got '%w'", err)
		}
		raw = wrapped.Segments
	} else if err := decode(r, format, &raw); err != nil {
		return nil, fmt.Errorf("could not decode segments, got '%w'", err)
	}
	return ParseSegments(raw)
}

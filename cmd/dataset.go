package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/config"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/dataset"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/video"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func datasetCmd() *cobra.Command {
	var manifest, out string

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Build training windows from labeled videos listed in a manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if out == "" {
				out = cfg.Directory.Ready
			}

			d, err := buildDataset(ctx, cfg, manifest)
			if err != nil {
				return err
			}

			dir, err := d.Save(out)
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "manifest file (yaml, toml or json)")
	cmd.Flags().StringVar(&out, "out", "", "output root (default directory.ready)")
	cmd.MarkFlagRequired("manifest")
	return cmd
}

func buildDataset(ctx context.Context, c config.Config, manifestPath string) (*dataset.Dataset, error) {
	m, err := dataset.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	extractor, release, err := newExtractor(c)
	if err != nil {
		return nil, err
	}
	defer release()

	d, err := dataset.NewBuilder(video.OpenSource, extractor, shapeOf(c)).Build(ctx, m)
	if err != nil {
		if errors.Is(err, dataset.ErrEmptyDataset) {
			for _, v := range d.Videos {
				logrus.WithField("video", v.Path).Warnf("dataset: %d frames, %d labeled, %d misses, error '%s'",
					v.Stats.Frames, v.Stats.Labeled, v.Stats.Misses, v.Error)
			}
		}
		return nil, err
	}

	logrus.Infof("dataset: %d examples from %d videos", len(d.Examples), len(d.Videos))
	return d, nil
}

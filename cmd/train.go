package main

import (
	"errors"
	"path/filepath"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/classifier"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/dataset"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func trainCmd() *cobra.Command {
	var manifest, datasetPath string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the form classifier on a saved dataset or on a manifest built on the fly",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			var (
				d   *dataset.Dataset
				err error
			)
			switch {
			case datasetPath != "":
				d, err = dataset.Load(datasetPath)
			case manifest != "":
				if d, err = buildDataset(ctx, cfg, manifest); err == nil {
					datasetPath, err = d.Save(cfg.Directory.Ready)
				}
			default:
				err = errors.New("one of --dataset or --manifest is required")
			}
			if err != nil {
				return err
			}

			if d.Shape != shapeOf(cfg) {
				return errors.New("dataset shape " + d.Shape.String() + " does not match the configured " + shapeOf(cfg).String())
			}

			if cfg.Classifier.Backend == "process" {
				path := datasetPath
				if filepath.Ext(path) != ".json" {
					path = filepath.Join(path, dataset.FileName)
				}
				return classifier.TrainProcess(ctx, cfg.Classifier.Python, cfg.Classifier.Script, path, cfg.Classifier.ModelPath)
			}

			train, val := dataset.Split(d.Examples, cfg.Dataset.ValidationSplit, cfg.Dataset.Seed)
			xTrain, yTrain := dataset.Tensors(train)
			xVal, yVal := dataset.Tensors(val)
			logrus.Infof("train: %d training and %d validation windows", len(train), len(val))

			history, err := classifier.NewHTTP(cfg.Classifier.URL, cfg.Classifier.Timeout).Train(ctx, classifier.TrainReq{
				XTrain:    xTrain,
				YTrain:    yTrain,
				XVal:      xVal,
				YVal:      yVal,
				ModelPath: cfg.Classifier.ModelPath,
			})
			if err != nil {
				return err
			}

			for i := range history.Loss {
				entry := logrus.WithField("epoch", i+1).WithField("loss", history.Loss[i])
				if i < len(history.Accuracy) {
					entry = entry.WithField("accuracy", history.Accuracy[i])
				}
				if i < len(history.ValAccuracy) {
					entry = entry.WithField("val_accuracy", history.ValAccuracy[i])
				}
				entry.Info("train")
			}
			logrus.Infof("train: model saved to '%s'", cfg.Classifier.ModelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "build the dataset from this manifest first")
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "saved dataset directory or dataset.json")
	return cmd
}

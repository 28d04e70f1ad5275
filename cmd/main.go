package main

import (
	"fmt"
	"strings"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/config"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:           "pushup",
	Short:         "Push-up form analysis: dataset building, training and live feedback",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if err := setupLogging(cfg.Log); err != nil {
			return err
		}

		//create missing directories from config file
		return utils.EnsureDirs(cfg.Directory.Root, cfg.Directory.Source, cfg.Directory.Ready)
	},
}

func setupLogging(c config.Log) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	logrus.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got '%s'", c.Format)
	}
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.AddCommand(serveCmd(), liveCmd(), datasetCmd(), trainCmd())

	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("Error: Got '%v'", err)
	}
}

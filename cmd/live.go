package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/live"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/store"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/stream"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/video"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func liveCmd() *cobra.Command {
	var (
		videoPath string
		headless  bool
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Analyze push-ups from the camera (or a video file) with on-screen feedback",
		Long: "Keys: s start (3 second countdown), c cancel the countdown, x stop analysis, q or ESC quit.\n" +
			"With --headless the analysis starts on the first frame and verdicts only go to the log and sinks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			var (
				src *video.Capture
				err error
			)
			if videoPath != "" {
				src, err = video.OpenFile(videoPath)
			} else {
				src, err = video.OpenDevice(cfg.Live.Camera)
			}
			if err != nil {
				return err
			}
			defer src.Close()

			extractor, release, err := newExtractor(cfg)
			if err != nil {
				return err
			}
			defer release()

			adapter, closeAdapter, err := newAdapter(cfg)
			if err != nil {
				return err
			}
			defer closeAdapter()

			var cls stream.Classifier
			if adapter != nil {
				cls = adapter
			}

			sinks := []stream.Sink{logSink{}}

			verdicts := store.New(cfg.Redis)
			defer verdicts.Close()
			if verdicts.Enabled() {
				sinks = append(sinks, verdicts)
			}

			if cfg.Live.FeedPort != "" {
				hub := live.NewHub()
				go hub.Run(ctx)

				r := gin.New()
				r.Use(gin.Recovery())
				r.GET("/api/Live", hub.ServeWS)
				go func() {
					if err := runHTTP(ctx, ":"+cfg.Live.FeedPort, r); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logrus.Errorf("live: feed server stopped, got '%v'", err)
					}
				}()
				sinks = append(sinks, hub)
			}

			ctl := stream.NewController(extractor, cls, shapeOf(cfg), stream.WithSinks(sinks...))

			var display stream.Display = &stream.Headless{}
			if !headless {
				win := video.NewWindow(cfg.Live.WindowName)
				defer win.Close()
				display = win
			}

			err = stream.Run(ctx, src, display, ctl)
			if errors.Is(err, stream.ErrSourceExhausted) || errors.Is(err, context.Canceled) {
				logrus.WithField("session", ctl.Session()).Infof("live: session ended, %v", err)
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&videoPath, "video", "", "analyze a video file instead of the camera")
	cmd.Flags().BoolVar(&headless, "headless", false, "do not open a window")
	return cmd
}

//logSink writes every verdict to the log
type logSink struct{}

func (logSink) Publish(_ context.Context, e stream.Event) error {
	logrus.WithFields(logrus.Fields{
		"session": e.Session,
		"frame":   e.Frame,
		"score":   e.Score,
	}).Info(e.Message)
	return nil
}

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/config"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/dataset"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/live"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/store"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/stream"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"
)

//DatasetBuilder turns a manifest into a dataset, *dataset.Builder in production
type DatasetBuilder interface {
	Build(ctx context.Context, m dataset.Manifest) (*dataset.Dataset, error)
}

//History reads stored session verdicts, *store.VerdictStore in production
type History interface {
	History(ctx context.Context, session string) ([]stream.Event, error)
	Summary(ctx context.Context, session string) (map[string]int64, error)
}

//Server holds the router's collaborators. hub and history may be nil, their routes then answer 503.
type Server struct {
	dirs    config.Directory
	builder DatasetBuilder
	hub     *live.Hub
	history History
	log     *logrus.Entry

	//builds is called after every background build, tests use it to wait
	builds func(dir string, err error)
}

func NewServer(dirs config.Directory, builder DatasetBuilder, hub *live.Hub, history History) *Server {
	return &Server{
		dirs:    dirs,
		builder: builder,
		hub:     hub,
		history: history,
		log:     logrus.WithField("component", "api"),
		builds:  func(string, error) {},
	}
}

func (s *Server) SetRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/Datasets", s.listDatasets)
	apiRoutes.GET("/Dataset", s.getDataset)
	apiRoutes.POST("/Upload", s.upload)
	apiRoutes.GET("/Sessions/:id/Verdicts", s.sessionVerdicts)
	apiRoutes.GET("/Live", func(ctx *gin.Context) {
		if s.hub == nil {
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		s.hub.ServeWS(ctx)
	})

	return r
}

func (s *Server) logRequests(ctx *gin.Context) {
	ctx.Next()
	s.log.WithFields(logrus.Fields{
		"method": ctx.Request.Method,
		"path":   ctx.Request.URL.Path,
		"status": ctx.Writer.Status(),
	}).Debug("request")
}

func (s *Server) listDatasets(ctx *gin.Context) {
	names, err := utils.ListDir(s.dirs.Ready)
	if err != nil {
		s.log.Errorf("api/Datasets: %v", err)
		ctx.Status(http.StatusInternalServerError)
		return
	}

	datasets := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasPrefix(n, "dataset_") {
			datasets = append(datasets, n)
		}
	}
	ctx.JSON(http.StatusOK, datasets)
}

func (s *Server) getDataset(ctx *gin.Context) {
	name := ctx.Query("name")
	if name == "" {
		ctx.Status(http.StatusNotAcceptable) //missing url parameter
		return
	}
	if name != filepath.Base(name) || !strings.HasPrefix(name, "dataset_") {
		ctx.Status(http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.dirs.Ready, name, dataset.FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			ctx.Status(http.StatusNotFound)
		} else {
			ctx.Status(http.StatusInternalServerError)
		}
		return
	}

	ctx.Header("Content-Type", "application/json")
	http.ServeFile(ctx.Writer, ctx.Request, path)
}

//upload stores a video with its labeled segments and builds a dataset from it in the background
func (s *Server) upload(ctx *gin.Context) {
	file, fHeader, err := ctx.Request.FormFile("video")
	if err != nil {
		ctx.String(http.StatusBadRequest, "missing 'video' file")
		return
	}
	defer file.Close()

	name := filepath.Base(fHeader.Filename)
	if existNames, err := utils.ListDir(s.dirs.Source); err != nil {
		ctx.Status(http.StatusInternalServerError)
		return
	} else if utils.InSlice(name, existNames) {
		ctx.Status(http.StatusNotAcceptable)
		return
	}

	segments, err := dataset.DecodeSegments(strings.NewReader(ctx.PostForm("segments")), "json")
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		s.log.Errorf("api/Upload: Could not read request's body, got '%v'", err)
		ctx.Status(http.StatusInternalServerError)
		return
	}
	if !filetype.IsVideo(fileBytes) {
		ctx.String(http.StatusUnsupportedMediaType, "'%s' is not a video", name)
		return
	}

	srcFilePath := filepath.Join(s.dirs.Source, name)
	if err := os.WriteFile(srcFilePath, fileBytes, 0o444); err != nil {
		s.log.Errorf("api/Upload: Could not write '%s' file, got '%v'", srcFilePath, err)
		ctx.Status(http.StatusInternalServerError)
		return
	}
	s.log.Infof("api/Upload: Received new file: name - '%s', size - %v Bytes, %d segments", name, len(fileBytes), len(segments))

	m := dataset.Manifest{Videos: []dataset.Video{{Path: srcFilePath, Segments: segments}}}
	go s.build(m)

	ctx.JSON(http.StatusAccepted, gin.H{"video": name, "segments": len(segments)})
}

func (s *Server) build(m dataset.Manifest) {
	d, err := s.builder.Build(context.Background(), m)
	if err != nil {
		s.log.Errorf("api/Upload: build failed, got '%v'", err)
		s.builds("", err)
		return
	}

	dir, err := d.Save(s.dirs.Ready)
	if err != nil {
		s.log.Errorf("api/Upload: %v", err)
	} else {
		s.log.Infof("api/Upload: dataset saved to '%s'", dir)
	}
	s.builds(dir, err)
}

func (s *Server) sessionVerdicts(ctx *gin.Context) {
	if s.history == nil {
		ctx.Status(http.StatusServiceUnavailable)
		return
	}
	session := ctx.Param("id")

	events, err := s.history.History(ctx.Request.Context(), session)
	if err != nil {
		s.historyError(ctx, err)
		return
	}

	summary, err := s.history.Summary(ctx.Request.Context(), session)
	if err != nil {
		s.historyError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"session": session, "verdicts": events, "summary": summary})
}

func (s *Server) historyError(ctx *gin.Context, err error) {
	if errors.Is(err, store.ErrDisabled) {
		ctx.Status(http.StatusServiceUnavailable)
		return
	}
	s.log.Errorf("api/Sessions: %v", err)
	ctx.Status(http.StatusInternalServerError)
}

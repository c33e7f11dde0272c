package main

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/config"
	"github.com/ivlev/framecomp/internal/project"
	"github.com/ivlev/framecomp/internal/renderer"
	"github.com/ivlev/framecomp/internal/source"
	"github.com/ivlev/framecomp/internal/system"
	"github.com/ivlev/framecomp/internal/timeline"
)

// projectsDir is searched for the newest project when none is named.
const projectsDir = "projects"

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	log *logrus.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		log:          logrus.StandardLogger(),
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		config.LoadDotEnv()
		system.InitResourceLimits()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path, system.Detect())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			cfg.Logging.Level = *c.logLevelFlag
		}
		if err := cfg.Logging.Apply(c.log); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// sources wires every source scheme the CLI understands.
func (c *commandContext) sources(cfg *config.Config) (*source.Router, *source.PDFSource, error) {
	images, err := source.NewImageSource(cfg.Sources.ImageFPS, cfg.Sources.ImageCache)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := source.NewPDFSource(cfg.Sources.PageDuration, cfg.Sources.DPI, cfg.Sources.PageCache)
	if err != nil {
		return nil, nil, err
	}

	router := source.NewRouter()
	router.Handle("image", images)
	router.Handle("pdf", pdf)
	router.Handle("slate", &source.SlateSource{
		Width:  cfg.Canvas.Width,
		Height: cfg.Canvas.Height,
		FPS:    cfg.Canvas.FPS,
	})
	return router, pdf, nil
}

// session is a loaded project ready to render.
type session struct {
	cfg      *config.Config
	project  *project.Project
	sources  *source.Router
	renderer *renderer.Renderer
	path     string
}

func (c *commandContext) openProject(path string) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if path == "" {
		latest, err := project.FindLatest(projectsDir)
		if err != nil {
			return nil, err
		}
		c.log.WithField("project", latest).Info("using latest project")
		path = latest
	}

	router, _, err := c.sources(cfg)
	if err != nil {
		return nil, err
	}
	p, err := project.Load(path, timeline.WithBounds(router), timeline.WithLogger(c.log))
	if err != nil {
		return nil, err
	}

	rc := cfg.RendererConfig()
	rc.Width, rc.Height = p.Canvas.Width, p.Canvas.Height
	r, err := renderer.New(p.Timeline, router, rc,
		renderer.WithLogger(c.log),
		renderer.WithFramePool(system.NewFramePool()),
	)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, project: p, sources: router, renderer: r, path: path}, nil
}

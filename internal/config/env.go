package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FRAMECOMP_"

// LoadDotEnv reads KEY=VALUE pairs from the given files, or .env when none
// are named, into the process environment. Variables already set win.
// Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			logrus.WithField("file", f).Debug("no env file loaded")
		}
	}
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", errdefs.ErrValidation, EnvPrefix, name, v)
		}
		*dst = n
		return nil
	}
	float := func(name string, dst *float64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", errdefs.ErrValidation, EnvPrefix, name, v)
		}
		*dst = f
		return nil
	}

	str("PRESET", &c.Canvas.Preset)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	str("TRANSITION", &c.Slideshow.Transition)

	for name, dst := range map[string]*int{
		"WIDTH":      &c.Canvas.Width,
		"HEIGHT":     &c.Canvas.Height,
		"WORKERS":    &c.Render.Workers,
		"CACHE_SIZE": &c.Render.CacheSize,
		"DPI":        &c.Sources.DPI,
	} {
		if err := integer(name, dst); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*float64{
		"FPS":           &c.Canvas.FPS,
		"PAGE_DURATION": &c.Sources.PageDuration,
		"FADE":          &c.Slideshow.Fade,
	} {
		if err := float(name, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(EnvPrefix + "SOURCE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sSOURCE_TIMEOUT=%q", errdefs.ErrValidation, EnvPrefix, v)
		}
		c.Render.SourceTimeout = d
	}
	return nil
}

// Apply sets level and formatter on l.
func (lc Logging) Apply(l *logrus.Logger) error {
	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", errdefs.ErrValidation, lc.Level)
	}
	l.SetLevel(level)
	switch lc.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

package report

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/source"
)

// Logger is the structured logger used by the pipeline.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Context carries everything one report run needs. It replaces global state:
// two Contexts never share mutable data.
type Context struct {
	Config   *config.Config
	Source   source.Source
	Logger   Logger
	Now      func() time.Time
	ReportID string
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithClock sets the clock used for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		if now != nil {
			c.Now = now
		}
	}
}

// WithReportID fixes the report ID instead of generating one.
func WithReportID(id string) Option {
	return func(c *Context) {
		if id != "" {
			c.ReportID = id
		}
	}
}

// NewContext creates a Context. The logger defaults to a no-op logger and
// the report ID to a random UUID.
func NewContext(cfg *config.Config, src source.Source, opts ...Option) *Context {
	c := &Context{
		Config:   cfg,
		Source:   src,
		Logger:   zap.NewNop().Sugar(),
		Now:      time.Now,
		ReportID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Package ectx defines ExecutionContext, the value every Executable
// receives: project configuration, the event writer sink, source
// identity, and the render scope (spec §2, §6).
package ectx

import (
	"context"

	"github.com/r3e-network/oxy-engine/internal/engine/contract"
	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
	"github.com/r3e-network/oxy-engine/internal/engine/render"
	"github.com/r3e-network/oxy-engine/pkg/logger"
)

// ExecutionContext is threaded through every Executable.Execute call. It
// is cheap to derive: Child and WithRenderValue return a new value sharing
// the same underlying writer/project/secrets, only overlaying source or
// render scope.
type ExecutionContext struct {
	goCtx   context.Context
	Project contract.ProjectConfig
	Secrets contract.SecretsManager
	Writer  *event.Sender
	Source  event.Source
	Render  *render.Context
	Log     *logger.Logger
}

// Emit sends an event tagged with this context's source, honoring
// cancellation via the underlying Go context.
func (c *ExecutionContext) Emit(kind event.Kind) error {
	return c.Writer.Send(c.goCtx, event.New(c.Source, kind))
}

// GoContext returns the underlying context.Context used for cancellation
// and deadlines.
func (c *ExecutionContext) GoContext() context.Context {
	if c.goCtx == nil {
		return context.Background()
	}
	return c.goCtx
}

// Done reports whether the underlying context has been cancelled.
func (c *ExecutionContext) Done() <-chan struct{} {
	return c.GoContext().Done()
}

// Child derives a new ExecutionContext scoped to a child source, sharing
// every other field. Used whenever a wrapper or task builder enters a
// nested scope (e.g. a sub-workflow, a loop iteration, a cache-hit
// message source).
func (c *ExecutionContext) Child(sourceKind string) *ExecutionContext {
	child := *c
	child.Source = event.NewChild(sourceKind, c.Source)
	return &child
}

// WithWriter returns a derived context sending events through a different
// Sender — used when a wrapper needs to redirect events into a BufWriter
// or an OrderedWriter partition instead of the parent writer.
func (c *ExecutionContext) WithWriter(w *event.Sender) *ExecutionContext {
	child := *c
	child.Writer = w
	return &child
}

// WithRenderValue overlays values on top of the render context, cheaply
// (no ancestor copy) per spec §4.C.
func (c *ExecutionContext) WithRenderValue(values map[string]any) *ExecutionContext {
	child := *c
	child.Render = c.Render.Wrap(values)
	return &child
}

// WithGoContext returns a derived context carrying a different
// context.Context, used to apply a per-call timeout or cancellation
// token.
func (c *ExecutionContext) WithGoContext(ctx context.Context) *ExecutionContext {
	child := *c
	child.goCtx = ctx
	return &child
}

// Builder constructs a root ExecutionContext (spec §6
// ExecutionContextBuilder).
type Builder struct {
	goCtx       context.Context
	project     contract.ProjectConfig
	secrets     contract.SecretsManager
	writer      *event.Sender
	source      *event.Source
	globalCtx   map[string]any
	renderScope map[string]any
	log         *logger.Logger
}

// NewBuilder starts a root ExecutionContext build.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithGoContext(ctx context.Context) *Builder {
	b.goCtx = ctx
	return b
}

func (b *Builder) WithProject(p contract.ProjectConfig) *Builder {
	b.project = p
	return b
}

func (b *Builder) WithSecrets(s contract.SecretsManager) *Builder {
	b.secrets = s
	return b
}

func (b *Builder) WithWriter(w *event.Sender) *Builder {
	b.writer = w
	return b
}

func (b *Builder) WithSource(s event.Source) *Builder {
	b.source = &s
	return b
}

// WithGlobalContext sets the base render-context values available to
// every task (project databases, tool list, user-supplied context files).
func (b *Builder) WithGlobalContext(values map[string]any) *Builder {
	b.globalCtx = values
	return b
}

// WithRenderScope overlays additional ad-hoc values on top of the global
// context.
func (b *Builder) WithRenderScope(values map[string]any) *Builder {
	b.renderScope = values
	return b
}

func (b *Builder) WithLogger(l *logger.Logger) *Builder {
	b.log = l
	return b
}

// Build validates required fields and constructs the root
// ExecutionContext.
func (b *Builder) Build() (*ExecutionContext, error) {
	if b.writer == nil {
		return nil, enginerr.New(enginerr.ConfigurationError, "execution context requires a writer")
	}

	source := event.NewRoot("execution")
	if b.source != nil {
		source = *b.source
	}

	goCtx := b.goCtx
	if goCtx == nil {
		goCtx = context.Background()
	}

	renderCtx := render.New()
	if len(b.globalCtx) > 0 {
		renderCtx = renderCtx.Wrap(b.globalCtx)
	}
	if len(b.renderScope) > 0 {
		renderCtx = renderCtx.Wrap(b.renderScope)
	}

	log := b.log
	if log == nil {
		log = logger.NewDefault("engine")
	}

	return &ExecutionContext{
		goCtx:   goCtx,
		Project: b.project,
		Secrets: b.secrets,
		Writer:  b.writer,
		Source:  source,
		Render:  renderCtx,
		Log:     log,
	}, nil
}

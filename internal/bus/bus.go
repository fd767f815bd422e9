// Package bus routes named commands to the use-case services.
//
// Every dispatch checks the command's data contract, then runs the handler
// inside a span, and records its outcome. The handlers own the transaction.
package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"parcours/internal/platform/metrics"
	dErrors "parcours/pkg/domain-errors"
	"parcours/pkg/platform/validation"
	"parcours/pkg/requestcontext"
)

// CodeInvalidCommand tags violations of a command's struct constraints.
const CodeInvalidCommand = "COMMANDE-1"

const (
	outcomeOK        = "ok"
	outcomeViolation = "violation"
	outcomeError     = "error"
)

type route struct {
	commandType reflect.Type
	decode      func(raw []byte) (any, error)
	handle      func(ctx context.Context, cmd any) (any, error)
}

// Bus holds the command registry. Register every command before the first
// dispatch; the registry is not guarded for concurrent writes.
type Bus struct {
	routes  map[string]route
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Bus)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(b *Bus) {
		b.tracer = t
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{
		routes: make(map[string]route),
		logger: slog.Default(),
		tracer: otel.Tracer("parcours/bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register binds name to handler. Registering a name twice panics.
func Register[C, R any](b *Bus, name string, handler func(context.Context, C) (R, error)) {
	if _, exists := b.routes[name]; exists {
		panic(fmt.Sprintf("bus: command %q registered twice", name))
	}
	b.routes[name] = route{
		commandType: reflect.TypeFor[C](),
		decode: func(raw []byte) (any, error) {
			var cmd C
			dec := json.NewDecoder(bytes.NewReader(raw))
			dec.DisallowUnknownFields()
			if err := dec.Decode(&cmd); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("invalid %s payload", name))
			}
			return cmd, nil
		},
		handle: func(ctx context.Context, cmd any) (any, error) {
			c, ok := cmd.(C)
			if !ok {
				if p, isPtr := cmd.(*C); isPtr && p != nil {
					c = *p
				} else {
					return nil, dErrors.New(dErrors.CodeInternal,
						fmt.Sprintf("command %s expects %T, got %T", name, c, cmd))
				}
			}
			if err := (validation.List{Contract: validation.Tags(CodeInvalidCommand, c)}).Validate(); err != nil {
				return nil, err
			}
			return handler(ctx, c)
		},
	}
}

// Has reports whether name is registered.
func (b *Bus) Has(name string) bool {
	_, ok := b.routes[name]
	return ok
}

// Names returns the registered command names, sorted.
func (b *Bus) Names() []string {
	names := make([]string, 0, len(b.routes))
	for name := range b.routes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Dispatch runs the handler registered under name.
func (b *Bus) Dispatch(ctx context.Context, name string, cmd any) (any, error) {
	r, ok := b.routes[name]
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("no handler registered for %s", name))
	}
	return b.dispatch(ctx, name, r, cmd)
}

// DispatchJSON decodes raw into the command type registered under name and
// dispatches it. Unknown fields are rejected.
func (b *Bus) DispatchJSON(ctx context.Context, name string, raw []byte) (any, error) {
	r, ok := b.routes[name]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("unknown command %s", name))
	}
	cmd, err := r.decode(raw)
	if err != nil {
		b.observe(ctx, name, 0, err)
		return nil, err
	}
	return b.dispatch(ctx, name, r, cmd)
}

func (b *Bus) dispatch(ctx context.Context, name string, r route, cmd any) (any, error) {
	ctx, span := b.tracer.Start(ctx, "bus.dispatch", trace.WithAttributes(
		attribute.String("command", name),
		attribute.String("command.type", r.commandType.String()),
	))
	defer span.End()

	start := time.Now()
	out, err := r.handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.GetCode(err)))
	}
	b.observe(ctx, name, time.Since(start), err)
	return out, err
}

func (b *Bus) observe(ctx context.Context, name string, elapsed time.Duration, err error) {
	outcome := outcomeOK
	v, isViolation := dErrors.AsViolations(err)
	switch {
	case err == nil:
		b.logger.DebugContext(ctx, "command handled", "command", name,
			"actor", requestcontext.Actor(ctx).String(), "duration_ms", elapsed.Milliseconds())
	case isViolation:
		outcome = outcomeViolation
		b.logger.InfoContext(ctx, "command rejected", "command", name, "codes", v.Codes())
	default:
		outcome = outcomeError
		b.logger.ErrorContext(ctx, "command failed", "command", name,
			"request_id", requestcontext.RequestID(ctx), "error", err)
	}
	if b.metrics == nil {
		return
	}
	b.metrics.ObserveCommand(name, outcome, elapsed)
	if isViolation {
		for _, code := range v.Codes() {
			b.metrics.IncrementViolation(code)
		}
	}
}

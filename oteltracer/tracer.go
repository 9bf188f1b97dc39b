// Package oteltracer adapts the inject.Tracer event stream to
// OpenTelemetry spans: one span per resolve operation, one child span per
// request, and span events for middleware enter/exit.
package oteltracer

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/scopekit/inject"
)

const instrumentationName = "github.com/scopekit/inject/oteltracer"

// Tracer emits OpenTelemetry spans for resolution events. Operations may
// run concurrently on separate goroutines, so per-operation span stacks
// are keyed by the operation's trace ID; within one operation events are
// strictly ordered, which keeps each stack consistent.
//
// Like every inject.Tracer, it is purely observational and never fails a
// resolution: events arriving for unknown operations are dropped.
type Tracer struct {
	tracer trace.Tracer

	mu  sync.Mutex
	ops map[string][]spanFrame
}

type spanFrame struct {
	ctx  context.Context
	span trace.Span
}

// New creates a Tracer emitting through the given provider.
func New(provider trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: provider.Tracer(instrumentationName),
		ops:    make(map[string][]spanFrame),
	}
}

var _ inject.Tracer = (*Tracer)(nil)

func (t *Tracer) OperationStart(op *inject.ResolveOperation) {
	ctx, span := t.tracer.Start(context.Background(), "inject.resolve_operation",
		trace.WithAttributes(
			attribute.String("inject.operation_id", op.TraceID()),
			attribute.String("inject.scope_id", op.InitiatingScope().ID()),
		),
	)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops[op.TraceID()] = []spanFrame{{ctx: ctx, span: span}}
}

func (t *Tracer) OperationSuccess(op *inject.ResolveOperation, _ any) {
	t.finishOperation(op, nil)
}

func (t *Tracer) OperationFailure(op *inject.ResolveOperation, err error) {
	t.finishOperation(op, err)
}

func (t *Tracer) finishOperation(op *inject.ResolveOperation, err error) {
	t.mu.Lock()
	frames, ok := t.ops[op.TraceID()]
	delete(t.ops, op.TraceID())
	t.mu.Unlock()

	if !ok || len(frames) == 0 {
		return
	}

	root := frames[0].span
	if err != nil {
		root.RecordError(err)
		root.SetStatus(codes.Error, err.Error())
	} else {
		root.SetStatus(codes.Ok, "")
	}
	root.End()
}

func (t *Tracer) RequestStart(op *inject.ResolveOperation, req *inject.RequestContext) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frames, ok := t.ops[op.TraceID()]
	if !ok || len(frames) == 0 {
		return
	}

	parent := frames[len(frames)-1].ctx
	ctx, span := t.tracer.Start(parent, "inject.resolve "+req.Service().String(),
		trace.WithAttributes(
			attribute.String("inject.service", req.Service().String()),
			attribute.String("inject.registration_id", req.Registration().ID()),
			attribute.String("inject.scope_id", req.Scope().ID()),
			attribute.String("inject.lifetime", req.Registration().Lifetime().String()),
		),
	)

	t.ops[op.TraceID()] = append(frames, spanFrame{ctx: ctx, span: span})
}

func (t *Tracer) RequestSuccess(op *inject.ResolveOperation, _ *inject.RequestContext) {
	t.finishRequest(op, nil)
}

func (t *Tracer) RequestFailure(op *inject.ResolveOperation, _ *inject.RequestContext, err error) {
	t.finishRequest(op, err)
}

func (t *Tracer) finishRequest(op *inject.ResolveOperation, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frames, ok := t.ops[op.TraceID()]
	// The operation's own frame is never popped here.
	if !ok || len(frames) < 2 {
		return
	}

	span := frames[len(frames)-1].span
	t.ops[op.TraceID()] = frames[:len(frames)-1]

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *Tracer) MiddlewareEnter(op *inject.ResolveOperation, _ *inject.RequestContext, stage string) {
	t.addEvent(op, "middleware.enter", attribute.String("inject.stage", stage))
}

func (t *Tracer) MiddlewareExit(op *inject.ResolveOperation, _ *inject.RequestContext, stage string, succeeded bool) {
	t.addEvent(op, "middleware.exit",
		attribute.String("inject.stage", stage),
		attribute.Bool("inject.succeeded", succeeded),
	)
}

func (t *Tracer) addEvent(op *inject.ResolveOperation, name string, attrs ...attribute.KeyValue) {
	t.mu.Lock()
	defer t.mu.Unlock()

	frames, ok := t.ops[op.TraceID()]
	if !ok || len(frames) == 0 {
		return
	}

	frames[len(frames)-1].span.AddEvent(name, trace.WithAttributes(attrs...))
}

package inject_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scopekit/inject"
)

// ============================================================================
// Shared Test Types
// ============================================================================

// TService is a basic service for testing.
type TService struct {
	ID int
}

// TDependency is a basic dependency for testing.
type TDependency struct {
	Value string
}

// TGreeter is a basic interface for decoration testing.
type TGreeter interface {
	Greet() string
}

// TInner is the undecorated TGreeter implementation.
type TInner struct {
	Label string
}

func (i *TInner) Greet() string { return i.Label }

// TWrap decorates another TGreeter.
type TWrap struct {
	Label string
	Inner TGreeter
}

func (w *TWrap) Greet() string { return w.Label + "(" + w.Inner.Greet() + ")" }

// disposalRecorder captures disposal order across instances.
type disposalRecorder struct {
	mu    sync.Mutex
	order []string
}

func (r *disposalRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, name)
}

func (r *disposalRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// TDisposable records its disposal and fails at most once.
type TDisposable struct {
	Name     string
	Err      error
	recorder *disposalRecorder
	closed   atomic.Bool
}

func (d *TDisposable) Close() error {
	if d.closed.Swap(true) {
		return errors.New("already closed")
	}
	if d.recorder != nil {
		d.recorder.record(d.Name)
	}
	return d.Err
}

// recordingTracer captures the event stream as readable strings.
type recordingTracer struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTracer) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTracer) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingTracer) OperationStart(*inject.ResolveOperation) {
	r.add("operation-start")
}

func (r *recordingTracer) OperationSuccess(*inject.ResolveOperation, any) {
	r.add("operation-success")
}

func (r *recordingTracer) OperationFailure(*inject.ResolveOperation, error) {
	r.add("operation-failure")
}

func (r *recordingTracer) RequestStart(_ *inject.ResolveOperation, req *inject.RequestContext) {
	r.add("request-start " + req.Service().String())
}

func (r *recordingTracer) RequestSuccess(_ *inject.ResolveOperation, req *inject.RequestContext) {
	r.add("request-success " + req.Service().String())
}

func (r *recordingTracer) RequestFailure(_ *inject.ResolveOperation, req *inject.RequestContext, _ error) {
	r.add("request-failure " + req.Service().String())
}

func (r *recordingTracer) MiddlewareEnter(_ *inject.ResolveOperation, _ *inject.RequestContext, stage string) {
	r.add("enter " + stage)
}

func (r *recordingTracer) MiddlewareExit(_ *inject.ResolveOperation, _ *inject.RequestContext, stage string, succeeded bool) {
	r.add(fmt.Sprintf("exit %s %t", stage, succeeded))
}

// ============================================================================
// Shared Helpers
// ============================================================================

// mustBuild builds a container and disposes it with the test.
func mustBuild(t *testing.T, configure func(*inject.ContainerBuilder)) *inject.LifetimeScope {
	t.Helper()

	builder := inject.NewContainerBuilder()
	configure(builder)

	root, err := builder.Build()
	require.NoError(t, err)

	t.Cleanup(func() { _ = root.Close() })
	return root
}

// countingActivator counts activations and returns produce's value.
func countingActivator(count *atomic.Int32, produce func() any) func(*inject.RequestContext) (any, error) {
	return func(*inject.RequestContext) (any, error) {
		count.Add(1)
		return produce(), nil
	}
}

// childScope creates a child and disposes it with the test.
func childScope(t *testing.T, parent *inject.LifetimeScope) *inject.LifetimeScope {
	t.Helper()

	child, err := parent.BeginChildScope()
	require.NoError(t, err)
	t.Cleanup(func() { _ = child.Close() })
	return child
}

// taggedScope creates a tagged child and disposes it with the test.
func taggedScope(t *testing.T, parent *inject.LifetimeScope, tag any) *inject.LifetimeScope {
	t.Helper()

	child, err := parent.BeginChildScopeTagged(tag)
	require.NoError(t, err)
	t.Cleanup(func() { _ = child.Close() })
	return child
}

// indexOf returns the position of the first event equal to want, or -1.
func indexOf(events []string, want string) int {
	for i, e := range events {
		if e == want {
			return i
		}
	}
	return -1
}

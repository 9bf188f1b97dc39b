package inject

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// RootScopeTag is the tag carried by the scope a container builder
// produces. Matching-scope registrations may bind to it explicitly.
const RootScopeTag = "root"

// LifetimeScope is a node in the tree of resolution and disposal
// boundaries. Each scope owns an instance cache for shared lifetimes and
// an ordered disposal list; children hold a back-reference to their
// parent for tag lookup and root ascent.
//
// Scopes are safe for concurrent use: independent resolutions may run on
// separate goroutines and only interact through the scope's caches, whose
// check-then-populate sequence is atomic per registration.
type LifetimeScope struct {
	id       string
	tag      any
	registry *Registry
	tracer   Tracer
	parent   *LifetimeScope
	root     *LifetimeScope

	disposed atomic.Bool

	mu          sync.Mutex
	children    []*LifetimeScope
	shared      map[string]*sharedEntry
	disposables []DisposableWithContext
}

// sharedEntry holds one cached instance slot. Its own mutex serializes
// activation per (registration, scope) without blocking the rest of the
// scope: a losing concurrent caller waits here and receives the winner's
// instance instead of activating twice.
type sharedEntry struct {
	mu       sync.Mutex
	done     bool
	instance any
}

func newRootScope(registry *Registry, tracer Tracer) *LifetimeScope {
	s := &LifetimeScope{
		id:       uuid.NewString(),
		tag:      RootScopeTag,
		registry: registry,
		tracer:   tracer,
		shared:   make(map[string]*sharedEntry),
	}
	s.root = s
	return s
}

// ID returns the scope's unique identity.
func (s *LifetimeScope) ID() string {
	return s.id
}

// Tag returns the scope's tag, or nil for untagged scopes.
func (s *LifetimeScope) Tag() any {
	return s.tag
}

// Parent returns the parent scope, or nil for the root.
func (s *LifetimeScope) Parent() *LifetimeScope {
	return s.parent
}

// Root returns the root of the scope tree.
func (s *LifetimeScope) Root() *LifetimeScope {
	return s.root
}

// IsRoot reports whether this scope is the tree's root.
func (s *LifetimeScope) IsRoot() bool {
	return s.parent == nil
}

// IsDisposed reports whether the scope has completed or begun teardown.
func (s *LifetimeScope) IsDisposed() bool {
	return s.disposed.Load()
}

// Registry returns the registry shared by every scope in the tree.
func (s *LifetimeScope) Registry() *Registry {
	return s.registry
}

// Resolve produces an instance of the requested service. Each call starts
// a fresh top-level resolve operation; the given parameters are visible
// to the whole downstream graph of the request.
func (s *LifetimeScope) Resolve(service Service, params ...Parameter) (any, error) {
	if s.IsDisposed() {
		return nil, ErrScopeDisposed
	}

	candidates, err := s.registry.FindCandidates(service)
	if err != nil {
		return nil, err
	}

	// Most recent registration wins when several offer the service.
	reg := candidates[len(candidates)-1]

	op := newResolveOperation(s, s.tracer)
	return op.Execute(service, reg, params)
}

// ResolveAll produces one instance per candidate registration of the
// service, in registration order.
func (s *LifetimeScope) ResolveAll(service Service, params ...Parameter) ([]any, error) {
	if s.IsDisposed() {
		return nil, ErrScopeDisposed
	}

	candidates, err := s.registry.FindCandidates(service)
	if err != nil {
		return nil, err
	}

	instances := make([]any, 0, len(candidates))
	for _, reg := range candidates {
		op := newResolveOperation(s, s.tracer)
		instance, err := op.Execute(service, reg, params)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// BeginChildScope creates an untagged child scope.
func (s *LifetimeScope) BeginChildScope() (*LifetimeScope, error) {
	return s.beginChild(nil)
}

// BeginChildScopeTagged creates a child scope carrying a tag for
// matching-scope lookups.
func (s *LifetimeScope) BeginChildScopeTagged(tag any) (*LifetimeScope, error) {
	return s.beginChild(tag)
}

func (s *LifetimeScope) beginChild(tag any) (*LifetimeScope, error) {
	if s.IsDisposed() {
		return nil, ErrScopeDisposed
	}

	child := &LifetimeScope{
		id:       uuid.NewString(),
		tag:      tag,
		registry: s.registry,
		tracer:   s.tracer,
		parent:   s,
		root:     s.root,
		shared:   make(map[string]*sharedEntry),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed.Load() {
		return nil, ErrScopeDisposed
	}
	s.children = append(s.children, child)

	return child, nil
}

// findTagged ascends parent links looking for a scope whose tag matches
// one of the given tags.
func (s *LifetimeScope) findTagged(tags []any) (*LifetimeScope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		for _, t := range tags {
			if cur.tag == t {
				return cur, true
			}
		}
	}
	return nil, false
}

// getOrCreateShared returns the cached instance for the registration or
// runs factory to produce and cache one. The check-then-insert is atomic
// per registration: concurrent callers serialize on the entry, the first
// runs the factory and the rest observe its result. A failed factory
// leaves the slot empty so a later caller may retry.
func (s *LifetimeScope) getOrCreateShared(reg *Registration, factory func() (any, error)) (any, error) {
	if s.IsDisposed() {
		return nil, ErrScopeDisposed
	}

	s.mu.Lock()
	entry, ok := s.shared[reg.id]
	if !ok {
		entry = &sharedEntry{}
		s.shared[reg.id] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.done {
		return entry.instance, nil
	}

	instance, err := factory()
	if err != nil {
		return nil, err
	}

	entry.instance = instance
	entry.done = true
	return instance, nil
}

// trackInstance appends a disposable instance to the scope's disposal
// list. Instances are appended in activation-completion order, so
// disposing the list in reverse releases dependents before their
// dependencies. Tracking against a scope that has begun teardown closes
// the instance immediately and fails the resolution.
func (s *LifetimeScope) trackInstance(instance any) error {
	var d DisposableWithContext
	switch v := instance.(type) {
	case DisposableWithContext:
		d = v
	case Disposable:
		d = contextDisposable{disposable: v}
	default:
		return nil
	}

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		_ = d.Close(context.Background())
		return ErrScopeDisposed
	}
	s.disposables = append(s.disposables, d)
	s.mu.Unlock()
	return nil
}

// Close disposes the scope: children first, depth-first in creation
// order, then the scope's own instances in reverse activation order.
// Close is idempotent and safe to call concurrently with in-flight
// resolutions; once it has run, Resolve and BeginChildScope fail with
// ErrScopeDisposed. Individual disposal failures are collected and
// surfaced together once teardown completes.
func (s *LifetimeScope) Close() error {
	return s.CloseWithContext(context.Background())
}

// CloseWithContext disposes the scope, passing ctx to instances that
// implement DisposableWithContext.
func (s *LifetimeScope) CloseWithContext(ctx context.Context) error {
	if !s.disposed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	children := s.children
	s.children = nil
	disposables := s.disposables
	s.disposables = nil
	s.mu.Unlock()

	var errs []error

	for _, child := range children {
		if err := child.CloseWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	for i := len(disposables) - 1; i >= 0; i-- {
		if err := disposables[i].Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &DisposalError{ScopeID: s.id, Errors: errs}
	}
	return nil
}

// Resolve is a typed convenience over LifetimeScope.Resolve.
func Resolve[T any](scope *LifetimeScope, params ...Parameter) (T, error) {
	var zero T

	instance, err := scope.Resolve(For[T](), params...)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{Expected: For[T]().Type(), Actual: typeOf(instance)}
	}
	return typed, nil
}

// ResolveKeyed is a typed convenience for qualified services.
func ResolveKeyed[T any](scope *LifetimeScope, qualifier any, params ...Parameter) (T, error) {
	var zero T

	instance, err := scope.Resolve(Keyed[T](qualifier), params...)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{Expected: For[T]().Type(), Actual: typeOf(instance)}
	}
	return typed, nil
}

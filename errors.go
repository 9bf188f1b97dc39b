package inject

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Base errors that are wrapped in typed errors when more context is
// available. Match against these with errors.Is.

var (
	// Lifecycle errors.
	ErrScopeDisposed    = errors.New("lifetime scope has been disposed")
	ErrContainerBuilt   = errors.New("container builder has already been built")
	ErrOperationReused  = errors.New("resolve operation cannot be executed twice")
	ErrScopeNotResolved = errors.New("request has no owning scope")

	// Registration errors.
	ErrActivatorNil    = errors.New("activator cannot be nil")
	ErrServiceZero     = errors.New("service key cannot be zero")
	ErrNoServices      = errors.New("registration must offer at least one service")
	ErrNoMatchingTags  = errors.New("matching-scope lifetime requires at least one tag")
	ErrPredicateNil    = errors.New("decorator predicate cannot be nil")
	ErrSourceNil       = errors.New("registration source cannot be nil")
	ErrRegistrationNil = errors.New("registration cannot be nil")
)

var (
	_ error = LifetimeError{}
	_ error = NotRegisteredError{}
	_ error = ScopeTagNotFoundError{}
	_ error = ParameterNotSuppliedError{}
	_ error = TypeMismatchError{}
	_ error = RegistrationError{}
	_ error = &CircularDependencyError{}
	_ error = &ActivationError{}
	_ error = &DisposalError{}
)

// LifetimeError indicates an invalid lifetime value.
type LifetimeError struct {
	Value any
}

func (e LifetimeError) Error() string {
	return fmt.Sprintf("invalid lifetime: %v", e.Value)
}

// NotRegisteredError indicates no registration offers the requested service
// and no registration source could produce one.
type NotRegisteredError struct {
	Service Service
}

func (e NotRegisteredError) Error() string {
	return fmt.Sprintf("component not registered: no registration offers %s", e.Service)
}

// CycleFrame is one entry of the active-resolution stack captured when a
// circular dependency is detected.
type CycleFrame struct {
	Service        Service
	RegistrationID string
	ScopeID        string
}

func (f CycleFrame) String() string {
	return f.Service.String()
}

// CircularDependencyError indicates a (registration, scope) pair was
// re-entered while still being resolved. Stack holds the full chain of
// active resolutions, outermost first, ending with the repeated entry.
type CircularDependencyError struct {
	Service Service
	Stack   []CycleFrame
}

func (e *CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("circular dependency detected while resolving %s", e.Service))

	if len(e.Stack) > 0 {
		frames := make([]string, len(e.Stack))
		for i, f := range e.Stack {
			frames[i] = f.String()
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(frames, " -> "))
	}

	return b.String()
}

// ScopeTagNotFoundError indicates the ancestor walk for a matching-scope
// registration reached the root without finding a matching tag.
type ScopeTagNotFoundError struct {
	Service Service
	Tags    []any
	ScopeID string
}

func (e ScopeTagNotFoundError) Error() string {
	tags := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		tags[i] = fmt.Sprintf("%v", t)
	}
	return fmt.Sprintf("no scope with a tag in [%s] is visible from scope %s while resolving %s",
		strings.Join(tags, ", "), e.ScopeID, e.Service)
}

// ActivationError wraps a failure raised by an activator or a nested
// resolution. It is applied exactly once per propagation: wrapActivation
// checks the annotated marker and passes an already-wrapped error through,
// so the top-level caller sees one coherent chain rather than nested
// wrapper layers.
type ActivationError struct {
	Service        Service
	RegistrationID string
	ScopeID        string
	Cause          error

	annotated bool
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activation of %s failed (registration %s, scope %s): %v",
		e.Service, e.RegistrationID, e.ScopeID, e.Cause)
}

func (e *ActivationError) Unwrap() error {
	return e.Cause
}

// Annotated reports whether the error has already been given resolution
// context. Always true for errors produced by wrapActivation.
func (e *ActivationError) Annotated() bool {
	return e.annotated
}

// wrapActivation annotates err with the resolution site unless a previous
// propagation boundary already did.
func wrapActivation(req *RequestContext, err error) error {
	var ae *ActivationError
	if errors.As(err, &ae) && ae.Annotated() {
		return err
	}

	return &ActivationError{
		Service:        req.service,
		RegistrationID: req.registration.ID(),
		ScopeID:        req.scope.ID(),
		Cause:          err,
		annotated:      true,
	}
}

// ParameterNotSuppliedError indicates a required parameter could not be
// satisfied by the request's parameters or the registry.
type ParameterNotSuppliedError struct {
	Name    string
	Service Service
}

func (e ParameterNotSuppliedError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("required parameter %q (%s) was not supplied", e.Name, e.Service)
	}
	return fmt.Sprintf("required parameter %s was not supplied", e.Service)
}

// TypeMismatchError indicates a resolved instance does not have the type
// the caller asked for.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", formatType(e.Expected), formatType(e.Actual))
}

// RegistrationError wraps errors raised while building a registration.
type RegistrationError struct {
	Service   Service
	Operation string // "register", "decorate", "build"
	Cause     error
}

func (e RegistrationError) Error() string {
	if e.Service.IsZero() {
		return fmt.Sprintf("failed to %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Service, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// DisposalError aggregates failures collected while a scope was disposing
// its instances. A failing instance never prevents the remaining instances
// from being disposed; all failures surface here once disposal completes.
type DisposalError struct {
	ScopeID string
	Errors  []error
}

func (e *DisposalError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("scope %s disposal failed: %v", e.ScopeID, e.Errors[0])
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("scope %s disposal failed with %d errors:", e.ScopeID, len(e.Errors)))
	for i, err := range e.Errors {
		b.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
	}
	return b.String()
}

func (e *DisposalError) Unwrap() []error {
	return e.Errors
}

// formatType formats a reflect.Type for error messages, preferring short
// names over full package paths.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Interface, reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}

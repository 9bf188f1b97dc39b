package inject

import (
	"github.com/google/uuid"
)

// OperationState tracks the lifecycle of a resolve operation's top-level
// request.
type OperationState int

const (
	// OperationIdle means Execute has not been called yet.
	OperationIdle OperationState = iota

	// OperationInProgress means the top-level request is being resolved.
	OperationInProgress

	// OperationSucceeded means the top-level request produced an instance.
	OperationSucceeded

	// OperationFailed means the top-level request returned an error.
	OperationFailed
)

// String returns the string representation of the OperationState.
func (s OperationState) String() string {
	switch s {
	case OperationIdle:
		return "Idle"
	case OperationInProgress:
		return "InProgress"
	case OperationSucceeded:
		return "Succeeded"
	case OperationFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// opFrame is one entry of the active-resolution stack.
type opFrame struct {
	service      Service
	registration *Registration
	scope        *LifetimeScope
}

// ResolveOperation coordinates one externally-initiated resolution. It
// owns the active-resolution stack used for cycle detection and a tracing
// identity, and spawns one RequestContext per graph node.
//
// Operations are strictly synchronous and single-threaded: nested
// resolutions recurse on the caller's stack, so the active stack needs no
// synchronization. Joining an in-flight operation happens only through
// RequestContext.ResolveComponent; a scope's Resolve always starts a
// fresh, top-level operation.
type ResolveOperation struct {
	traceID    string
	initiating *LifetimeScope
	tracer     Tracer
	state      OperationState
	stack      []opFrame
}

func newResolveOperation(scope *LifetimeScope, tracer Tracer) *ResolveOperation {
	if tracer == nil {
		tracer = NopTracer{}
	}

	return &ResolveOperation{
		traceID:    uuid.NewString(),
		initiating: scope,
		tracer:     tracer,
	}
}

// TraceID returns the operation's tracing identity.
func (op *ResolveOperation) TraceID() string {
	return op.traceID
}

// InitiatingScope returns the scope the operation was started against.
func (op *ResolveOperation) InitiatingScope() *LifetimeScope {
	return op.initiating
}

// State returns the operation's current state.
func (op *ResolveOperation) State() OperationState {
	return op.state
}

// ActiveStack returns a snapshot of the active-resolution stack,
// outermost request first.
func (op *ResolveOperation) ActiveStack() []CycleFrame {
	frames := make([]CycleFrame, len(op.stack))
	for i, f := range op.stack {
		frames[i] = CycleFrame{
			Service:        f.service,
			RegistrationID: f.registration.ID(),
			ScopeID:        f.scope.ID(),
		}
	}
	return frames
}

// Execute drives the operation's single top-level request. An operation
// is one-shot: a second call fails with ErrOperationReused.
func (op *ResolveOperation) Execute(service Service, reg *Registration, params []Parameter) (any, error) {
	if op.state != OperationIdle {
		return nil, ErrOperationReused
	}

	op.state = OperationInProgress
	op.tracer.OperationStart(op)

	instance, err := op.executeRequest(service, reg, op.initiating, params, nil)
	if err != nil {
		op.state = OperationFailed
		op.tracer.OperationFailure(op, err)
		return nil, err
	}

	op.state = OperationSucceeded
	op.tracer.OperationSuccess(op, instance)
	return instance, nil
}

// executeRequest runs one graph node through its registration's pipeline.
// Nested resolutions re-enter here via RequestContext.ResolveComponent,
// unwinding in LIFO order.
func (op *ResolveOperation) executeRequest(service Service, reg *Registration, scope *LifetimeScope, params []Parameter, decoratorTarget any) (any, error) {
	merged := params
	if len(reg.defaultParameters) > 0 {
		merged = make([]Parameter, 0, len(params)+len(reg.defaultParameters))
		merged = append(merged, params...)
		merged = append(merged, reg.defaultParameters...)
	}

	req := &RequestContext{
		operation:       op,
		service:         service,
		registration:    reg,
		scope:           scope,
		parameters:      merged,
		decoratorTarget: decoratorTarget,
	}

	op.tracer.RequestStart(op, req)

	if err := reg.pipeline.Invoke(req); err != nil {
		op.tracer.RequestFailure(op, req, err)
		return nil, err
	}

	op.tracer.RequestSuccess(op, req)
	return req.instance, nil
}

// push adds a (registration, scope) pair to the active stack, failing
// with CircularDependencyError when the pair is already present. The
// error carries the full stack including the repeated entry.
func (op *ResolveOperation) push(req *RequestContext) error {
	for _, f := range op.stack {
		if f.registration == req.registration && f.scope == req.scope {
			stack := op.ActiveStack()
			stack = append(stack, CycleFrame{
				Service:        req.service,
				RegistrationID: req.registration.ID(),
				ScopeID:        req.scope.ID(),
			})
			return &CircularDependencyError{Service: req.service, Stack: stack}
		}
	}

	op.stack = append(op.stack, opFrame{
		service:      req.service,
		registration: req.registration,
		scope:        req.scope,
	})
	return nil
}

// pop removes the most recent stack entry. Guarded stages call it via
// defer so stack discipline survives activation failures.
func (op *ResolveOperation) pop() {
	if len(op.stack) > 0 {
		op.stack = op.stack[:len(op.stack)-1]
	}
}

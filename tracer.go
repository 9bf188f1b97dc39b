package inject

import "sync"

// Tracer receives ordered notifications about resolution progress. It is
// purely observational: implementations must never alter resolution
// outcome, and the core never depends on a tracer for correctness.
//
// Within one operation the events arrive in a strict order: OperationStart
// first, then for every graph node a RequestStart / RequestSuccess-or-
// Failure pair bracketing that node's middleware enter/exit events, and
// finally OperationSuccess or OperationFailure. Only top-level operations
// emit operation events; nested resolutions surface as further requests
// of the same operation.
type Tracer interface {
	OperationStart(op *ResolveOperation)
	OperationSuccess(op *ResolveOperation, instance any)
	OperationFailure(op *ResolveOperation, err error)

	RequestStart(op *ResolveOperation, req *RequestContext)
	RequestSuccess(op *ResolveOperation, req *RequestContext)
	RequestFailure(op *ResolveOperation, req *RequestContext, err error)

	MiddlewareEnter(op *ResolveOperation, req *RequestContext, stage string)
	MiddlewareExit(op *ResolveOperation, req *RequestContext, stage string, succeeded bool)
}

// NopTracer discards all events.
type NopTracer struct{}

func (NopTracer) OperationStart(*ResolveOperation)                                {}
func (NopTracer) OperationSuccess(*ResolveOperation, any)                         {}
func (NopTracer) OperationFailure(*ResolveOperation, error)                       {}
func (NopTracer) RequestStart(*ResolveOperation, *RequestContext)                 {}
func (NopTracer) RequestSuccess(*ResolveOperation, *RequestContext)               {}
func (NopTracer) RequestFailure(*ResolveOperation, *RequestContext, error)        {}
func (NopTracer) MiddlewareEnter(*ResolveOperation, *RequestContext, string)      {}
func (NopTracer) MiddlewareExit(*ResolveOperation, *RequestContext, string, bool) {}

// CompositeTracer fans events out to a set of tracers. Delivery order is
// the order tracers were added; Add and Remove are deterministic and safe
// for concurrent use.
type CompositeTracer struct {
	mu      sync.RWMutex
	tracers []Tracer
}

// NewCompositeTracer creates a composite over the given tracers.
func NewCompositeTracer(tracers ...Tracer) *CompositeTracer {
	return &CompositeTracer{tracers: append([]Tracer(nil), tracers...)}
}

// Add appends a tracer to the delivery list.
func (c *CompositeTracer) Add(t Tracer) {
	if t == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracers = append(c.tracers, t)
}

// Remove deletes the first occurrence of t from the delivery list,
// preserving the order of the rest. It reports whether t was present.
func (c *CompositeTracer) Remove(t Tracer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.tracers {
		if existing == t {
			c.tracers = append(c.tracers[:i:i], c.tracers[i+1:]...)
			return true
		}
	}
	return false
}

func (c *CompositeTracer) snapshot() []Tracer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Tracer(nil), c.tracers...)
}

func (c *CompositeTracer) OperationStart(op *ResolveOperation) {
	for _, t := range c.snapshot() {
		t.OperationStart(op)
	}
}

func (c *CompositeTracer) OperationSuccess(op *ResolveOperation, instance any) {
	for _, t := range c.snapshot() {
		t.OperationSuccess(op, instance)
	}
}

func (c *CompositeTracer) OperationFailure(op *ResolveOperation, err error) {
	for _, t := range c.snapshot() {
		t.OperationFailure(op, err)
	}
}

func (c *CompositeTracer) RequestStart(op *ResolveOperation, req *RequestContext) {
	for _, t := range c.snapshot() {
		t.RequestStart(op, req)
	}
}

func (c *CompositeTracer) RequestSuccess(op *ResolveOperation, req *RequestContext) {
	for _, t := range c.snapshot() {
		t.RequestSuccess(op, req)
	}
}

func (c *CompositeTracer) RequestFailure(op *ResolveOperation, req *RequestContext, err error) {
	for _, t := range c.snapshot() {
		t.RequestFailure(op, req, err)
	}
}

func (c *CompositeTracer) MiddlewareEnter(op *ResolveOperation, req *RequestContext, stage string) {
	for _, t := range c.snapshot() {
		t.MiddlewareEnter(op, req, stage)
	}
}

func (c *CompositeTracer) MiddlewareExit(op *ResolveOperation, req *RequestContext, stage string, succeeded bool) {
	for _, t := range c.snapshot() {
		t.MiddlewareExit(op, req, stage, succeeded)
	}
}

var (
	_ Tracer = NopTracer{}
	_ Tracer = (*CompositeTracer)(nil)
)

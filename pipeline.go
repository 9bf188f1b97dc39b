package inject

// Middleware is one stage in a registration's resolve pipeline. Stages are
// stateless per registration: the chain is composed once at registration
// time and reused across every request for that registration.
//
// Composition is onion-shaped: a stage may run logic before and after the
// call to next, and may short-circuit by not invoking next at all (for
// example when a cached instance is available).
type Middleware interface {
	// Name identifies the stage in traces.
	Name() string

	// Execute runs the stage. Calling next continues the chain toward the
	// terminal activation stage.
	Execute(req *RequestContext, next func(*RequestContext) error) error
}

// Pipeline is the compiled middleware chain of one registration.
type Pipeline struct {
	stages []Middleware
	entry  func(*RequestContext) error
}

// NewPipeline composes the given stages, first stage outermost. The chain
// is compiled once; Invoke only walks prebuilt closures.
func NewPipeline(stages ...Middleware) *Pipeline {
	p := &Pipeline{stages: stages}

	// Innermost continuation: reaching it means the terminal stage chose
	// to delegate, which leaves the request's instance untouched.
	next := func(*RequestContext) error { return nil }

	for i := len(stages) - 1; i >= 0; i-- {
		stage := stages[i]
		inner := next
		next = func(req *RequestContext) error {
			op := req.operation
			op.tracer.MiddlewareEnter(op, req, stage.Name())
			err := stage.Execute(req, inner)
			op.tracer.MiddlewareExit(op, req, stage.Name(), err == nil)
			return err
		}
	}

	p.entry = next
	return p
}

// Invoke runs the request through the chain. On success the request's
// Instance holds the resolved value.
func (p *Pipeline) Invoke(req *RequestContext) error {
	return p.entry(req)
}

// StageNames returns the names of the composed stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

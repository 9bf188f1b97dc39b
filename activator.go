package inject

// Activator is the strategy that performs the actual construction of an
// instance once the pipeline reaches its terminal stage. Activators may
// call back into the request's resolver (RequestContext.ResolveComponent)
// to satisfy their own dependencies; such nested resolutions join the
// in-flight operation and share its cycle-detection stack.
type Activator interface {
	// Activate builds the instance for the given request.
	Activate(req *RequestContext) (any, error)
}

// ActivatorFunc adapts a plain function to the Activator interface.
type ActivatorFunc func(req *RequestContext) (any, error)

func (f ActivatorFunc) Activate(req *RequestContext) (any, error) {
	return f(req)
}

// providedInstanceActivator returns a pre-built instance on every
// activation. Used by RegisterInstance; the sharing stage ensures it only
// activates once for shared lifetimes.
type providedInstanceActivator struct {
	instance any
}

func (a providedInstanceActivator) Activate(*RequestContext) (any, error) {
	return a.instance, nil
}

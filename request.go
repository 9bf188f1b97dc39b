package inject

// RequestContext carries the state of one graph node being resolved: the
// requested service, the chosen registration, the scope that will own the
// instance, and the parameters visible to the activator. A context is
// created when a stage needs a value and discarded once its pipeline run
// completes.
type RequestContext struct {
	operation       *ResolveOperation
	service         Service
	registration    *Registration
	scope           *LifetimeScope
	parameters      []Parameter
	decoratorTarget any
	instance        any
}

// Operation returns the resolve operation this request belongs to.
func (req *RequestContext) Operation() *ResolveOperation {
	return req.operation
}

// Service returns the service being resolved.
func (req *RequestContext) Service() Service {
	return req.service
}

// Registration returns the registration chosen for the service.
func (req *RequestContext) Registration() *Registration {
	return req.registration
}

// Scope returns the scope that owns this request's instance. Before the
// scope-selection stage runs this is the scope the request was made
// against; afterwards it is the sharing scope the lifetime selected.
func (req *RequestContext) Scope() *LifetimeScope {
	return req.scope
}

// Parameters returns the parameters visible to this request.
func (req *RequestContext) Parameters() []Parameter {
	return append([]Parameter(nil), req.parameters...)
}

// DecoratorTarget returns the inner instance being decorated, or nil when
// this request is not a decorator run.
func (req *RequestContext) DecoratorTarget() any {
	return req.decoratorTarget
}

// Instance returns the value produced so far, nil until a stage sets one.
func (req *RequestContext) Instance() any {
	return req.instance
}

// SetInstance records the resolved value. User middleware may replace the
// instance after activation (for example to apply property injection).
func (req *RequestContext) SetInstance(instance any) {
	req.instance = instance
}

// ResolveComponent resolves another service as a nested request of the
// same operation. This is the reentrancy path activators use for their
// dependencies: the nested request shares the operation's active stack,
// so cycles spanning several activations are still detected.
//
// The request's own parameters stay visible to the nested graph; extra
// parameters take precedence over them.
func (req *RequestContext) ResolveComponent(service Service, params ...Parameter) (any, error) {
	if req.scope.IsDisposed() {
		return nil, ErrScopeDisposed
	}

	candidates, err := req.scope.registry.FindCandidates(service)
	if err != nil {
		return nil, err
	}

	// Most recent registration wins, same as a top-level resolve.
	reg := candidates[len(candidates)-1]

	merged := make([]Parameter, 0, len(params)+len(req.parameters))
	merged = append(merged, params...)
	merged = append(merged, req.parameters...)

	return req.operation.executeRequest(service, reg, req.scope, merged, nil)
}

// SupplyParameter satisfies one of the registration's parameter
// descriptors: request parameters are consulted in order, then the
// descriptor's service is resolved as a nested request. Required
// descriptors fail with ParameterNotSuppliedError when nothing matches;
// optional ones yield nil.
func (req *RequestContext) SupplyParameter(desc ParameterDescriptor) (any, error) {
	for _, p := range req.parameters {
		if provider, ok := p.CanSupply(desc, req); ok {
			return provider()
		}
	}

	if !desc.Service.IsZero() && req.scope.registry.IsRegistered(desc.Service) {
		return req.ResolveComponent(desc.Service)
	}

	if desc.Required {
		return nil, ParameterNotSuppliedError{Name: desc.Name, Service: desc.Service}
	}
	return nil, nil
}

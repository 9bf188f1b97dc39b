package inject

// ValueProvider produces the value a Parameter agreed to supply.
type ValueProvider func() (any, error)

// ParameterDescriptor is the precomputed description of one value an
// activator needs. Registrations carry these as plain data so the core
// never inspects constructors at resolution time.
type ParameterDescriptor struct {
	// Name of the parameter, used by name-matched parameters. Optional.
	Name string

	// Service identifies the value's type (and optional qualifier) so
	// unmatched parameters can fall back to resolution. Optional.
	Service Service

	// Required makes SupplyParameter fail when nothing can supply the
	// value; optional parameters yield nil instead.
	Required bool
}

// Parameter supplies values to activators. Parameters passed to Resolve
// are visible to every request in that resolution's downstream graph.
type Parameter interface {
	// CanSupply reports whether this parameter can satisfy the descriptor,
	// returning the provider to call for the value.
	CanSupply(desc ParameterDescriptor, req *RequestContext) (ValueProvider, bool)
}

// NamedParameter supplies a fixed value to descriptors matched by name.
type NamedParameter struct {
	Name  string
	Value any
}

func (p NamedParameter) CanSupply(desc ParameterDescriptor, _ *RequestContext) (ValueProvider, bool) {
	if desc.Name == "" || desc.Name != p.Name {
		return nil, false
	}

	value := p.Value
	return func() (any, error) { return value, nil }, true
}

// TypedParameter supplies a fixed value to descriptors matched by service.
type TypedParameter struct {
	Service Service
	Value   any
}

func (p TypedParameter) CanSupply(desc ParameterDescriptor, _ *RequestContext) (ValueProvider, bool) {
	if desc.Service.IsZero() || desc.Service != p.Service {
		return nil, false
	}

	value := p.Value
	return func() (any, error) { return value, nil }, true
}

// ResolvedParameter satisfies descriptors for the given service by
// resolving it through the requesting context, joining the in-flight
// operation.
type ResolvedParameter struct {
	Service Service
}

func (p ResolvedParameter) CanSupply(desc ParameterDescriptor, req *RequestContext) (ValueProvider, bool) {
	if desc.Service.IsZero() || desc.Service != p.Service {
		return nil, false
	}

	service := p.Service
	return func() (any, error) { return req.ResolveComponent(service) }, true
}

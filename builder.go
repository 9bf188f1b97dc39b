package inject

import "sync"

// ContainerBuilder collects registrations and produces the root lifetime
// scope. The builder is the only mutable stage of a container's life:
// once Build has run, every registration is immutable and the builder
// refuses further use.
type ContainerBuilder struct {
	mu         sync.Mutex
	built      bool
	pending    []*RegistrationBuilder
	decorators []*DecoratorRegistration
	sources    []RegistrationSource
	tracers    []Tracer
	err        error
}

// NewContainerBuilder creates an empty builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{}
}

// Register adds a component built by the given function. Configure the
// registration through the returned builder:
//
//	builder.Register(func(req *inject.RequestContext) (any, error) {
//	    return NewServer(), nil
//	}).As(inject.For[*Server]()).SingleInstance()
func (b *ContainerBuilder) Register(activate func(*RequestContext) (any, error)) *RegistrationBuilder {
	return b.RegisterActivator(ActivatorFunc(activate))
}

// RegisterActivator adds a component built by the given activator.
func (b *ContainerBuilder) RegisterActivator(activator Activator) *RegistrationBuilder {
	rb := &RegistrationBuilder{
		cfg: RegistrationConfig{
			Activator: activator,
			Lifetime:  InstancePerDependency,
			Ownership: OwnedByLifetimeScope,
		},
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, rb)
	return rb
}

// RegisterInstance adds a pre-built instance as a SingleInstance
// registration for the given service.
func (b *ContainerBuilder) RegisterInstance(service Service, instance any) *RegistrationBuilder {
	rb := b.RegisterActivator(providedInstanceActivator{instance: instance})
	rb.As(service).SingleInstance()
	return rb
}

// RegisterDecorator wraps every resolution of the given service with the
// decorate function. The inner instance arrives as the second argument
// (and as the request's DecoratorTarget). Decorators chain in the order
// they were registered, innermost first.
func (b *ContainerBuilder) RegisterDecorator(service Service, decorate func(req *RequestContext, inner any) (any, error)) {
	b.RegisterDecoratorWhen(
		func(s Service, _ *Registration) bool { return s == service },
		decorate,
	)
}

// RegisterDecoratorWhen wraps every resolution matched by the predicate.
func (b *ContainerBuilder) RegisterDecoratorWhen(predicate DecoratorPredicate, decorate func(req *RequestContext, inner any) (any, error)) {
	var activator Activator
	if decorate != nil {
		activator = ActivatorFunc(func(req *RequestContext) (any, error) {
			return decorate(req, req.DecoratorTarget())
		})
	}

	d, err := NewDecoratorRegistration(predicate, activator)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		if b.err == nil {
			b.err = err
		}
		return
	}
	b.decorators = append(b.decorators, d)
}

// RegisterSource adds a dynamic registration source consulted on lookup
// misses.
func (b *ContainerBuilder) RegisterSource(src RegistrationSource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if src == nil {
		if b.err == nil {
			b.err = ErrSourceNil
		}
		return
	}
	b.sources = append(b.sources, src)
}

// UseTracer attaches a diagnostic tracer. Multiple tracers receive events
// in the order they were attached.
func (b *ContainerBuilder) UseTracer(t Tracer) {
	if t == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tracers = append(b.tracers, t)
}

// Build compiles every pending registration, populates the registry, and
// returns the root lifetime scope. A builder can be built once.
func (b *ContainerBuilder) Build() (*LifetimeScope, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.built {
		return nil, ErrContainerBuilt
	}
	if b.err != nil {
		return nil, b.err
	}

	registry := NewRegistry()

	for _, rb := range b.pending {
		reg, err := NewRegistration(rb.cfg)
		if err != nil {
			return nil, err
		}
		if err := registry.AddRegistration(reg); err != nil {
			return nil, err
		}
	}

	for _, d := range b.decorators {
		if err := registry.AddDecorator(d); err != nil {
			return nil, err
		}
	}

	for _, src := range b.sources {
		if err := registry.AddSource(src); err != nil {
			return nil, err
		}
	}

	var tracer Tracer
	switch len(b.tracers) {
	case 0:
		tracer = NopTracer{}
	case 1:
		tracer = b.tracers[0]
	default:
		tracer = NewCompositeTracer(b.tracers...)
	}

	b.built = true
	return newRootScope(registry, tracer), nil
}

// RegistrationBuilder configures one pending registration. All methods
// return the builder for chaining; the configuration is compiled and
// validated when the container builder's Build runs.
type RegistrationBuilder struct {
	cfg RegistrationConfig
}

// As adds services the component is offered under.
func (rb *RegistrationBuilder) As(services ...Service) *RegistrationBuilder {
	rb.cfg.Services = append(rb.cfg.Services, services...)
	return rb
}

// SingleInstance shares one instance across the whole scope tree.
func (rb *RegistrationBuilder) SingleInstance() *RegistrationBuilder {
	rb.cfg.Lifetime = SingleInstance
	return rb
}

// InstancePerDependency produces a fresh instance per request.
func (rb *RegistrationBuilder) InstancePerDependency() *RegistrationBuilder {
	rb.cfg.Lifetime = InstancePerDependency
	return rb
}

// InstancePerLifetimeScope shares one instance per resolving scope.
func (rb *RegistrationBuilder) InstancePerLifetimeScope() *RegistrationBuilder {
	rb.cfg.Lifetime = InstancePerLifetimeScope
	return rb
}

// InstancePerMatchingScope shares one instance per nearest ancestor scope
// tagged with one of the given tags.
func (rb *RegistrationBuilder) InstancePerMatchingScope(tags ...any) *RegistrationBuilder {
	rb.cfg.Lifetime = InstancePerMatchingScope
	rb.cfg.MatchingTags = append(rb.cfg.MatchingTags, tags...)
	return rb
}

// ExternallyOwned leaves disposal to the caller; the scope never tracks
// instances of this registration.
func (rb *RegistrationBuilder) ExternallyOwned() *RegistrationBuilder {
	rb.cfg.Ownership = ExternallyOwned
	return rb
}

// OwnedByLifetimeScope restores the default disposal tracking.
func (rb *RegistrationBuilder) OwnedByLifetimeScope() *RegistrationBuilder {
	rb.cfg.Ownership = OwnedByLifetimeScope
	return rb
}

// WithParameterDescriptors attaches the precomputed description of the
// activator's parameters.
func (rb *RegistrationBuilder) WithParameterDescriptors(descriptors ...ParameterDescriptor) *RegistrationBuilder {
	rb.cfg.ParameterDescriptors = append(rb.cfg.ParameterDescriptors, descriptors...)
	return rb
}

// WithDefaultParameters attaches parameters merged into every request for
// this registration, after request-supplied ones.
func (rb *RegistrationBuilder) WithDefaultParameters(params ...Parameter) *RegistrationBuilder {
	rb.cfg.DefaultParameters = append(rb.cfg.DefaultParameters, params...)
	return rb
}

// WithMiddleware appends user stages run between decoration and
// activation.
func (rb *RegistrationBuilder) WithMiddleware(stages ...Middleware) *RegistrationBuilder {
	rb.cfg.Middlewares = append(rb.cfg.Middlewares, stages...)
	return rb
}

package inject

import (
	"fmt"

	"github.com/google/uuid"
)

// Registration is an immutable description of how to build a component
// offering one or more services. Registrations are created once, compile
// their pipeline at creation time, and outlive all scopes.
type Registration struct {
	id                string
	services          []Service
	lifetime          Lifetime
	ownership         Ownership
	matchingTags      []any
	activator         Activator
	parameters        []ParameterDescriptor
	defaultParameters []Parameter
	pipeline          *Pipeline
}

// RegistrationConfig carries everything needed to compile a Registration.
// Registration sources build these for lazily-materialized components.
type RegistrationConfig struct {
	// Services this component offers. At least one is required.
	Services []Service

	// Lifetime controls instance sharing. Defaults to InstancePerDependency.
	Lifetime Lifetime

	// Ownership controls disposal tracking. Defaults to OwnedByLifetimeScope.
	Ownership Ownership

	// MatchingTags are required for InstancePerMatchingScope.
	MatchingTags []any

	// Activator is the terminal construction strategy. Required.
	Activator Activator

	// ParameterDescriptors describe the values the activator needs,
	// precomputed as data.
	ParameterDescriptors []ParameterDescriptor

	// DefaultParameters are merged after request parameters on every
	// request for this registration.
	DefaultParameters []Parameter

	// Middlewares are additional user stages, run after decoration and
	// before activation.
	Middlewares []Middleware
}

// NewRegistration validates the config and compiles the registration's
// pipeline: scope selection, circular-dependency guard, sharing,
// decoration, user stages, then activation.
func NewRegistration(cfg RegistrationConfig) (*Registration, error) {
	if cfg.Activator == nil {
		return nil, RegistrationError{Operation: "register", Cause: ErrActivatorNil}
	}
	if len(cfg.Services) == 0 {
		return nil, RegistrationError{Operation: "register", Cause: ErrNoServices}
	}
	for _, s := range cfg.Services {
		if s.IsZero() {
			return nil, RegistrationError{Operation: "register", Cause: ErrServiceZero}
		}
	}
	if !cfg.Lifetime.IsValid() {
		return nil, RegistrationError{Service: cfg.Services[0], Operation: "register", Cause: LifetimeError{Value: cfg.Lifetime}}
	}
	if cfg.Lifetime == InstancePerMatchingScope && len(cfg.MatchingTags) == 0 {
		return nil, RegistrationError{Service: cfg.Services[0], Operation: "register", Cause: ErrNoMatchingTags}
	}

	r := &Registration{
		id:                uuid.NewString(),
		services:          append([]Service(nil), cfg.Services...),
		lifetime:          cfg.Lifetime,
		ownership:         cfg.Ownership,
		matchingTags:      append([]any(nil), cfg.MatchingTags...),
		activator:         cfg.Activator,
		parameters:        append([]ParameterDescriptor(nil), cfg.ParameterDescriptors...),
		defaultParameters: append([]Parameter(nil), cfg.DefaultParameters...),
	}

	stages := make([]Middleware, 0, 5+len(cfg.Middlewares))
	stages = append(stages,
		&scopeSelectionMiddleware{lifetime: r.lifetime, tags: r.matchingTags},
		&circularGuardMiddleware{},
		&sharingMiddleware{lifetime: r.lifetime},
		&decorationMiddleware{},
	)
	stages = append(stages, cfg.Middlewares...)
	stages = append(stages, &activationMiddleware{activator: r.activator, ownership: r.ownership})

	r.pipeline = NewPipeline(stages...)
	return r, nil
}

// ID returns the registration's unique identity.
func (r *Registration) ID() string {
	return r.id
}

// Services returns the services this registration offers.
func (r *Registration) Services() []Service {
	return append([]Service(nil), r.services...)
}

// Lifetime returns the instance-sharing policy.
func (r *Registration) Lifetime() Lifetime {
	return r.lifetime
}

// Ownership returns the disposal-tracking policy.
func (r *Registration) Ownership() Ownership {
	return r.ownership
}

// MatchingTags returns the scope tags a matching-scope registration binds to.
func (r *Registration) MatchingTags() []any {
	return append([]any(nil), r.matchingTags...)
}

// Activator returns the terminal construction strategy.
func (r *Registration) Activator() Activator {
	return r.activator
}

// ParameterDescriptors returns the precomputed activator parameter
// descriptions.
func (r *Registration) ParameterDescriptors() []ParameterDescriptor {
	return append([]ParameterDescriptor(nil), r.parameters...)
}

// Pipeline returns the compiled resolve pipeline.
func (r *Registration) Pipeline() *Pipeline {
	return r.pipeline
}

func (r *Registration) String() string {
	return fmt.Sprintf("Registration{%s, %s, %s}", r.services[0], r.lifetime, shortID(r.id))
}

// DecoratorPredicate selects which resolutions a decorator applies to.
type DecoratorPredicate func(service Service, registration *Registration) bool

// DecoratorRegistration wraps instances produced by other registrations.
// Decorators matching a request chain in declaration order, innermost
// first; each runs its own pipeline with the inner instance recorded as
// the request's decorator target.
type DecoratorRegistration struct {
	id        string
	predicate DecoratorPredicate
	pipeline  *Pipeline
}

// NewDecoratorRegistration builds a decorator from a predicate and an
// activator. The decorator's pipeline is activation-only; sharing and
// cycle concerns belong to the decorated registration.
func NewDecoratorRegistration(predicate DecoratorPredicate, activator Activator) (*DecoratorRegistration, error) {
	if predicate == nil {
		return nil, RegistrationError{Operation: "decorate", Cause: ErrPredicateNil}
	}
	if activator == nil {
		return nil, RegistrationError{Operation: "decorate", Cause: ErrActivatorNil}
	}

	return &DecoratorRegistration{
		id:        uuid.NewString(),
		predicate: predicate,
		pipeline:  NewPipeline(&activationMiddleware{activator: activator, ownership: OwnedByLifetimeScope}),
	}, nil
}

// ID returns the decorator's unique identity.
func (d *DecoratorRegistration) ID() string {
	return d.id
}

// Matches reports whether the decorator applies to the given resolution.
func (d *DecoratorRegistration) Matches(service Service, registration *Registration) bool {
	return d.predicate(service, registration)
}

// shortID trims a uuid for error messages and traces.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

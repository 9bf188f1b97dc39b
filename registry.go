package inject

import "sync"

// RegistrationSource produces registrations on demand. Sources are
// consulted once per service, on the first lookup miss; whatever they
// return is cached in the registry, so repeated identical lookups are
// idempotent and the source is never asked about the same service twice.
type RegistrationSource interface {
	// RegistrationsFor returns the registrations this source can supply
	// for the requested service, or nil when it has none.
	RegistrationsFor(service Service) ([]*Registration, error)
}

// Registry is the indexed store mapping a service key to its candidate
// registrations. It holds eager registrations added at build time plus
// the cached output of dynamic sources.
type Registry struct {
	mu            sync.RWMutex
	registrations map[Service][]*Registration
	decorators    []*DecoratorRegistration
	sources       []RegistrationSource
	queried       map[Service]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[Service][]*Registration),
		queried:       make(map[Service]struct{}),
	}
}

// AddRegistration indexes a registration under every service it offers.
func (r *Registry) AddRegistration(reg *Registration) error {
	if reg == nil {
		return ErrRegistrationNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(reg)
	return nil
}

func (r *Registry) addLocked(reg *Registration) {
	for _, s := range reg.services {
		r.registrations[s] = append(r.registrations[s], reg)
	}
}

// AddDecorator appends a decorator. Declaration order is preserved and
// determines chaining order at resolve time.
func (r *Registry) AddDecorator(d *DecoratorRegistration) error {
	if d == nil {
		return ErrRegistrationNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.decorators = append(r.decorators, d)
	return nil
}

// AddSource appends a dynamic registration source.
func (r *Registry) AddSource(src RegistrationSource) error {
	if src == nil {
		return ErrSourceNil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
	return nil
}

// FindCandidates returns the ordered candidate registrations for a
// service, earliest registered first. On a miss it consults the dynamic
// sources once, caching whatever they produce. Fails with
// NotRegisteredError when nothing can supply the service.
func (r *Registry) FindCandidates(service Service) ([]*Registration, error) {
	if service.IsZero() {
		return nil, ErrServiceZero
	}

	r.mu.RLock()
	regs, ok := r.registrations[service]
	_, queried := r.queried[service]
	r.mu.RUnlock()

	if ok || queried {
		if len(regs) == 0 {
			return nil, NotRegisteredError{Service: service}
		}
		return append([]*Registration(nil), regs...), nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have materialized the service while we waited.
	if regs, ok := r.registrations[service]; ok {
		return append([]*Registration(nil), regs...), nil
	}
	if _, queried := r.queried[service]; !queried {
		for _, src := range r.sources {
			produced, err := src.RegistrationsFor(service)
			if err != nil {
				return nil, RegistrationError{Service: service, Operation: "materialize", Cause: err}
			}
			for _, reg := range produced {
				if reg != nil {
					r.addLocked(reg)
				}
			}
		}
		r.queried[service] = struct{}{}
	}

	regs = r.registrations[service]
	if len(regs) == 0 {
		return nil, NotRegisteredError{Service: service}
	}
	return append([]*Registration(nil), regs...), nil
}

// DecoratorsFor returns the decorators matching a resolution, in
// declaration order.
func (r *Registry) DecoratorsFor(service Service, reg *Registration) []*DecoratorRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*DecoratorRegistration
	for _, d := range r.decorators {
		if d.Matches(service, reg) {
			matched = append(matched, d)
		}
	}
	return matched
}

// IsRegistered reports whether at least one candidate exists or can be
// materialized for the service.
func (r *Registry) IsRegistered(service Service) bool {
	regs, err := r.FindCandidates(service)
	return err == nil && len(regs) > 0
}

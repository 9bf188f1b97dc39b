package inject

// Built-in pipeline stages. Every registration compiles the same chain:
// scope selection, circular-dependency guard, sharing, decoration, user
// stages, activation. Stages are stateless; all per-request state lives
// on the RequestContext.

// scopeSelectionMiddleware redirects the request to the scope that owns
// instances for the registration's lifetime before any caching or cycle
// bookkeeping happens, so both operate on the owning scope.
type scopeSelectionMiddleware struct {
	lifetime Lifetime
	tags     []any
}

func (m *scopeSelectionMiddleware) Name() string { return "scope-selection" }

func (m *scopeSelectionMiddleware) Execute(req *RequestContext, next func(*RequestContext) error) error {
	switch m.lifetime {
	case SingleInstance:
		req.scope = req.scope.Root()
	case InstancePerMatchingScope:
		matched, ok := req.scope.findTagged(m.tags)
		if !ok {
			return ScopeTagNotFoundError{
				Service: req.service,
				Tags:    append([]any(nil), m.tags...),
				ScopeID: req.scope.ID(),
			}
		}
		req.scope = matched
	}

	if req.scope.IsDisposed() {
		return ErrScopeDisposed
	}

	return next(req)
}

// circularGuardMiddleware pushes the request's (registration, scope) pair
// onto the operation's active stack and pops it on the way out. A pair
// already on the stack means the resolution depends on itself; it fails
// before any partial activation happens. Running before the sharing stage
// keeps a self-cycle from deadlocking on the sharing entry lock.
type circularGuardMiddleware struct{}

func (m *circularGuardMiddleware) Name() string { return "circular-guard" }

func (m *circularGuardMiddleware) Execute(req *RequestContext, next func(*RequestContext) error) error {
	if err := req.operation.push(req); err != nil {
		return err
	}
	defer req.operation.pop()

	return next(req)
}

// sharingMiddleware consults the owning scope's instance cache. For shared
// lifetimes a cache hit short-circuits the rest of the chain; a miss runs
// the remaining stages under the scope's per-registration lock so at most
// one activation happens per (registration, scope) pair even under
// concurrent callers. InstancePerDependency skips caching entirely.
type sharingMiddleware struct {
	lifetime Lifetime
}

func (m *sharingMiddleware) Name() string { return "sharing" }

func (m *sharingMiddleware) Execute(req *RequestContext, next func(*RequestContext) error) error {
	if m.lifetime == InstancePerDependency {
		return next(req)
	}

	instance, err := req.scope.getOrCreateShared(req.registration, func() (any, error) {
		if err := next(req); err != nil {
			return nil, err
		}
		return req.instance, nil
	})
	if err != nil {
		return err
	}

	req.instance = instance
	return nil
}

// decorationMiddleware wraps a successfully activated instance with every
// matching decorator, in declaration order, innermost first. Each
// decorator runs its own pipeline with the current instance recorded as
// the decorator target. A predicate mismatch is not an error; the
// instance passes through untouched.
type decorationMiddleware struct{}

func (m *decorationMiddleware) Name() string { return "decoration" }

func (m *decorationMiddleware) Execute(req *RequestContext, next func(*RequestContext) error) error {
	if err := next(req); err != nil {
		return err
	}

	decorators := req.scope.registry.DecoratorsFor(req.service, req.registration)
	if len(decorators) == 0 {
		return nil
	}

	current := req.instance
	for _, d := range decorators {
		dreq := &RequestContext{
			operation:       req.operation,
			service:         req.service,
			registration:    req.registration,
			scope:           req.scope,
			parameters:      req.parameters,
			decoratorTarget: current,
		}

		if err := d.pipeline.Invoke(dreq); err != nil {
			return wrapActivation(dreq, err)
		}
		current = dreq.instance
	}

	req.instance = current
	return nil
}

// activationMiddleware is the terminal stage: it invokes the activator,
// annotates failures exactly once, and hands owned instances to the
// owning scope for disposal tracking. It never calls next.
type activationMiddleware struct {
	activator Activator
	ownership Ownership
}

func (m *activationMiddleware) Name() string { return "activation" }

func (m *activationMiddleware) Execute(req *RequestContext, _ func(*RequestContext) error) error {
	instance, err := m.activator.Activate(req)
	if err != nil {
		return wrapActivation(req, err)
	}

	req.instance = instance

	if m.ownership == OwnedByLifetimeScope {
		if err := req.scope.trackInstance(instance); err != nil {
			return err
		}
	}

	return nil
}

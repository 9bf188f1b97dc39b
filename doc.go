// Package inject is a dependency-resolution engine built around lifetime
// scopes and per-registration resolve pipelines.
//
// A ContainerBuilder collects immutable component registrations and
// produces the root LifetimeScope. Resolving a service walks the registry
// for a candidate registration and drives it through the registration's
// pipeline: scope selection, circular-dependency detection, shared-instance
// caching, optional decoration, and finally activation. Activators may
// resolve their own dependencies through the request context; those nested
// resolutions join the same operation and share its cycle-detection stack.
//
//	builder := inject.NewContainerBuilder()
//	builder.Register(func(req *inject.RequestContext) (any, error) {
//	    return NewConfig(), nil
//	}).As(inject.For[*Config]()).SingleInstance()
//
//	builder.Register(func(req *inject.RequestContext) (any, error) {
//	    cfg, err := req.ResolveComponent(inject.For[*Config]())
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewServer(cfg.(*Config)), nil
//	}).As(inject.For[*Server]()).InstancePerLifetimeScope()
//
//	root, err := builder.Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer root.Close()
//
//	scope, _ := root.BeginChildScope()
//	defer scope.Close()
//
//	server, err := inject.Resolve[*Server](scope)
//
// Lifetimes control sharing: SingleInstance caches in the root scope,
// InstancePerLifetimeScope in the resolving scope, InstancePerMatchingScope
// in the nearest ancestor carrying a matching tag, and
// InstancePerDependency never caches. Disposal cascades from a scope to
// its children in creation order and releases each scope's instances in
// reverse activation order.
//
// Diagnostics are observational: attach a Tracer with
// ContainerBuilder.UseTracer to receive ordered operation, request, and
// middleware events. The oteltracer subpackage adapts the events to
// OpenTelemetry spans.
package inject

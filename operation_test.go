package inject_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopekit/inject"
)

func TestOperation_CycleDetection(t *testing.T) {
	t.Run("direct self dependency", func(t *testing.T) {
		t.Parallel()

		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(req *inject.RequestContext) (any, error) {
				return req.ResolveComponent(inject.For[*TService]())
			}).As(inject.For[*TService]())
		})

		_, err := inject.Resolve[*TService](root)
		require.Error(t, err)

		var cycle *inject.CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, inject.For[*TService](), cycle.Service)
		// The stack holds the original entry plus the repeated one.
		assert.GreaterOrEqual(t, len(cycle.Stack), 2)
	})

	t.Run("indirect cycle across activations", func(t *testing.T) {
		t.Parallel()

		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(req *inject.RequestContext) (any, error) {
				if _, err := req.ResolveComponent(inject.For[*TDependency]()); err != nil {
					return nil, err
				}
				return &TService{}, nil
			}).As(inject.For[*TService]())

			b.Register(func(req *inject.RequestContext) (any, error) {
				if _, err := req.ResolveComponent(inject.For[*TService]()); err != nil {
					return nil, err
				}
				return &TDependency{}, nil
			}).As(inject.For[*TDependency]())
		})

		_, err := inject.Resolve[*TService](root)
		require.Error(t, err)

		var cycle *inject.CircularDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Contains(t, err.Error(), "->")
	})

	t.Run("cycle detection for single instances", func(t *testing.T) {
		t.Parallel()

		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(req *inject.RequestContext) (any, error) {
				return req.ResolveComponent(inject.For[*TService]())
			}).As(inject.For[*TService]()).SingleInstance()
		})

		scope := childScope(t, root)

		_, err := inject.Resolve[*TService](scope)
		require.Error(t, err)

		var cycle *inject.CircularDependencyError
		assert.ErrorAs(t, err, &cycle)
	})

	t.Run("diamond dependencies are not a cycle", func(t *testing.T) {
		t.Parallel()

		// TService depends on TDependency twice (directly and through
		// a keyed intermediate); the pair is popped between sibling
		// resolutions, so no false positive.
		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(*inject.RequestContext) (any, error) {
				return &TDependency{Value: "leaf"}, nil
			}).As(inject.For[*TDependency]())

			b.Register(func(req *inject.RequestContext) (any, error) {
				return req.ResolveComponent(inject.For[*TDependency]())
			}).As(inject.Keyed[*TDependency]("via"))

			b.Register(func(req *inject.RequestContext) (any, error) {
				if _, err := req.ResolveComponent(inject.For[*TDependency]()); err != nil {
					return nil, err
				}
				if _, err := req.ResolveComponent(inject.Keyed[*TDependency]("via")); err != nil {
					return nil, err
				}
				return &TService{}, nil
			}).As(inject.For[*TService]())
		})

		_, err := inject.Resolve[*TService](root)
		assert.NoError(t, err)
	})
}

func TestOperation_ActivationErrorWrapping(t *testing.T) {
	boom := errors.New("boom")

	newRoot := func(t *testing.T) *inject.LifetimeScope {
		return mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(*inject.RequestContext) (any, error) {
				return nil, boom
			}).As(inject.For[*TDependency]())

			b.Register(func(req *inject.RequestContext) (any, error) {
				if _, err := req.ResolveComponent(inject.For[*TDependency]()); err != nil {
					return nil, err
				}
				return &TService{}, nil
			}).As(inject.For[*TService]())
		})
	}

	t.Run("failure names the failing registration", func(t *testing.T) {
		t.Parallel()

		root := newRoot(t)

		_, err := inject.Resolve[*TService](root)
		require.Error(t, err)

		var activation *inject.ActivationError
		require.ErrorAs(t, err, &activation)
		assert.Equal(t, inject.For[*TDependency](), activation.Service)
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("wrapped exactly once across nested pipelines", func(t *testing.T) {
		t.Parallel()

		root := newRoot(t)

		_, err := inject.Resolve[*TService](root)
		require.Error(t, err)

		wrappers := 0
		for e := err; e != nil; e = errors.Unwrap(e) {
			if _, ok := e.(*inject.ActivationError); ok {
				wrappers++
			}
		}
		assert.Equal(t, 1, wrappers)
	})
}

func TestOperation_StateMachine(t *testing.T) {
	t.Run("success path notifies tracer in order", func(t *testing.T) {
		t.Parallel()

		tracer := &recordingTracer{}
		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.UseTracer(tracer)
			b.Register(func(*inject.RequestContext) (any, error) {
				return &TService{}, nil
			}).As(inject.For[*TService]())
		})

		_, err := inject.Resolve[*TService](root)
		require.NoError(t, err)

		events := tracer.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, "operation-start", events[0])
		assert.Equal(t, "operation-success", events[len(events)-1])
		assert.NotContains(t, events, "operation-failure")
	})

	t.Run("failure path notifies tracer in order", func(t *testing.T) {
		t.Parallel()

		tracer := &recordingTracer{}
		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.UseTracer(tracer)
			b.Register(func(*inject.RequestContext) (any, error) {
				return nil, errors.New("nope")
			}).As(inject.For[*TService]())
		})

		_, err := inject.Resolve[*TService](root)
		require.Error(t, err)

		events := tracer.Events()
		require.NotEmpty(t, events)
		assert.Equal(t, "operation-start", events[0])
		assert.Equal(t, "operation-failure", events[len(events)-1])
		assert.Contains(t, events, "request-failure *TService")
	})

	t.Run("nested resolutions share one operation", func(t *testing.T) {
		t.Parallel()

		tracer := &recordingTracer{}
		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.UseTracer(tracer)
			b.Register(func(*inject.RequestContext) (any, error) {
				return &TDependency{}, nil
			}).As(inject.For[*TDependency]())
			b.Register(func(req *inject.RequestContext) (any, error) {
				if _, err := req.ResolveComponent(inject.For[*TDependency]()); err != nil {
					return nil, err
				}
				return &TService{}, nil
			}).As(inject.For[*TService]())
		})

		_, err := inject.Resolve[*TService](root)
		require.NoError(t, err)

		events := tracer.Events()

		// One operation for the whole call tree.
		starts := 0
		for _, e := range events {
			if e == "operation-start" {
				starts++
			}
		}
		assert.Equal(t, 1, starts)

		// Dependencies finish before their dependents.
		outerStart := indexOf(events, "request-start *TService")
		innerStart := indexOf(events, "request-start *TDependency")
		innerDone := indexOf(events, "request-success *TDependency")
		outerDone := indexOf(events, "request-success *TService")

		require.NotEqual(t, -1, outerStart)
		require.NotEqual(t, -1, innerStart)
		require.NotEqual(t, -1, innerDone)
		require.NotEqual(t, -1, outerDone)

		assert.Less(t, outerStart, innerStart)
		assert.Less(t, innerStart, innerDone)
		assert.Less(t, innerDone, outerDone)
	})
}

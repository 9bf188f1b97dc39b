package inject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopekit/inject"
)

func TestContainerBuilder_Build(t *testing.T) {
	t.Run("builds an empty container", func(t *testing.T) {
		t.Parallel()

		builder := inject.NewContainerBuilder()
		root, err := builder.Build()
		require.NoError(t, err)
		defer root.Close()

		assert.True(t, root.IsRoot())
		assert.Equal(t, inject.RootScopeTag, root.Tag())
	})

	t.Run("second build fails", func(t *testing.T) {
		t.Parallel()

		builder := inject.NewContainerBuilder()
		root, err := builder.Build()
		require.NoError(t, err)
		defer root.Close()

		_, err = builder.Build()
		assert.ErrorIs(t, err, inject.ErrContainerBuilt)
	})

	t.Run("nil activator fails the build", func(t *testing.T) {
		t.Parallel()

		builder := inject.NewContainerBuilder()
		builder.RegisterActivator(nil).As(inject.For[*TService]())

		_, err := builder.Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, inject.ErrActivatorNil)

		var regErr inject.RegistrationError
		assert.ErrorAs(t, err, &regErr)
	})

	t.Run("registration without services fails the build", func(t *testing.T) {
		t.Parallel()

		builder := inject.NewContainerBuilder()
		builder.Register(func(*inject.RequestContext) (any, error) {
			return &TService{}, nil
		})

		_, err := builder.Build()
		assert.ErrorIs(t, err, inject.ErrNoServices)
	})

	t.Run("matching scope without tags fails the build", func(t *testing.T) {
		t.Parallel()

		builder := inject.NewContainerBuilder()
		builder.Register(func(*inject.RequestContext) (any, error) {
			return &TService{}, nil
		}).As(inject.For[*TService]()).InstancePerMatchingScope()

		_, err := builder.Build()
		assert.ErrorIs(t, err, inject.ErrNoMatchingTags)
	})

	t.Run("nil source fails the build", func(t *testing.T) {
		t.Parallel()

		builder := inject.NewContainerBuilder()
		builder.RegisterSource(nil)

		_, err := builder.Build()
		assert.ErrorIs(t, err, inject.ErrSourceNil)
	})

	t.Run("nil decorator activator fails the build", func(t *testing.T) {
		t.Parallel()

		builder := inject.NewContainerBuilder()
		builder.RegisterDecorator(inject.For[TGreeter](), nil)

		_, err := builder.Build()
		assert.ErrorIs(t, err, inject.ErrActivatorNil)
	})
}

func TestResolveTyped(t *testing.T) {
	t.Run("returns the concrete type", func(t *testing.T) {
		t.Parallel()

		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(*inject.RequestContext) (any, error) {
				return &TService{ID: 3}, nil
			}).As(inject.For[*TService]())
		})

		svc, err := inject.Resolve[*TService](root)
		require.NoError(t, err)
		assert.Equal(t, 3, svc.ID)
	})

	t.Run("fails with TypeMismatchError on a wrong instance type", func(t *testing.T) {
		t.Parallel()

		// The registration promises *TService but produces *TDependency.
		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(*inject.RequestContext) (any, error) {
				return &TDependency{}, nil
			}).As(inject.For[*TService]())
		})

		_, err := inject.Resolve[*TService](root)
		require.Error(t, err)

		var mismatch inject.TypeMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Contains(t, err.Error(), "TService")
		assert.Contains(t, err.Error(), "TDependency")
	})

	t.Run("keyed resolution", func(t *testing.T) {
		t.Parallel()

		root := mustBuild(t, func(b *inject.ContainerBuilder) {
			b.Register(func(*inject.RequestContext) (any, error) {
				return &TService{ID: 1}, nil
			}).As(inject.Keyed[*TService]("one"))
			b.Register(func(*inject.RequestContext) (any, error) {
				return &TService{ID: 2}, nil
			}).As(inject.Keyed[*TService]("two"))
		})

		one, err := inject.ResolveKeyed[*TService](root, "one")
		require.NoError(t, err)
		two, err := inject.ResolveKeyed[*TService](root, "two")
		require.NoError(t, err)

		assert.Equal(t, 1, one.ID)
		assert.Equal(t, 2, two.ID)
	})
}

func TestContainerBuilder_MultipleServicesPerComponent(t *testing.T) {
	t.Parallel()

	root := mustBuild(t, func(b *inject.ContainerBuilder) {
		b.Register(func(*inject.RequestContext) (any, error) {
			return &TInner{Label: "shared"}, nil
		}).
			As(inject.For[TGreeter](), inject.For[*TInner]()).
			SingleInstance()
	})

	asInterface, err := inject.Resolve[TGreeter](root)
	require.NoError(t, err)
	asConcrete, err := inject.Resolve[*TInner](root)
	require.NoError(t, err)

	assert.Same(t, asInterface.(*TInner), asConcrete)
}

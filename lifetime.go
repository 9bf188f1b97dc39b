package inject

import (
	"encoding/json"
	"fmt"
)

// Lifetime specifies how instances produced by a registration are shared.
// The lifetime determines which scope owns an instance and how long it lives.
type Lifetime int

const (
	// InstancePerDependency produces a new instance for every resolution
	// request. Nothing is cached; each dependent gets its own instance.
	InstancePerDependency Lifetime = iota

	// SingleInstance produces one instance for the whole scope tree.
	// The instance is created on first request and cached in the root scope.
	SingleInstance

	// InstancePerLifetimeScope produces one instance per lifetime scope.
	// Resolving from a child scope yields a different instance than
	// resolving from its parent.
	InstancePerLifetimeScope

	// InstancePerMatchingScope produces one instance per nearest ancestor
	// scope whose tag matches one of the registration's matching tags.
	// Resolution fails with ScopeTagNotFoundError when no ancestor matches.
	InstancePerMatchingScope
)

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string {
	switch l {
	case InstancePerDependency:
		return "InstancePerDependency"
	case SingleInstance:
		return "SingleInstance"
	case InstancePerLifetimeScope:
		return "InstancePerLifetimeScope"
	case InstancePerMatchingScope:
		return "InstancePerMatchingScope"
	default:
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// IsValid checks if the lifetime is one of the defined values.
func (l Lifetime) IsValid() bool {
	return l >= InstancePerDependency && l <= InstancePerMatchingScope
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Lifetime) UnmarshalText(text []byte) error {
	switch string(text) {
	case "InstancePerDependency":
		*l = InstancePerDependency
	case "SingleInstance":
		*l = SingleInstance
	case "InstancePerLifetimeScope":
		*l = InstancePerLifetimeScope
	case "InstancePerMatchingScope":
		*l = InstancePerMatchingScope
	default:
		return LifetimeError{Value: string(text)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (l Lifetime) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Lifetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	return l.UnmarshalText([]byte(s))
}

// Ownership specifies who is responsible for disposing an instance.
type Ownership int

const (
	// OwnedByLifetimeScope means the activating scope tracks the instance
	// and disposes it when the scope is disposed.
	OwnedByLifetimeScope Ownership = iota

	// ExternallyOwned means the caller keeps disposal responsibility;
	// the scope never tracks the instance.
	ExternallyOwned
)

// String returns the string representation of the Ownership.
func (o Ownership) String() string {
	switch o {
	case OwnedByLifetimeScope:
		return "OwnedByLifetimeScope"
	case ExternallyOwned:
		return "ExternallyOwned"
	default:
		return fmt.Sprintf("Unknown(%d)", int(o))
	}
}

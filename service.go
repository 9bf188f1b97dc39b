package inject

import (
	"fmt"
	"reflect"
)

// Service is the lookup key a resolution request is made against.
// It pairs a Go type with an optional qualifier so that multiple
// registrations of the same type can be addressed individually.
//
// Service values compare by value: two Services are equal when both
// their type and qualifier are equal. Qualifiers must therefore be
// comparable (strings, ints, small structs).
type Service struct {
	serviceType reflect.Type
	qualifier   any
}

// NewService creates a Service for the given type.
func NewService(t reflect.Type) Service {
	return Service{serviceType: t}
}

// NewKeyedService creates a Service for the given type qualified by a key.
func NewKeyedService(t reflect.Type, qualifier any) Service {
	return Service{serviceType: t, qualifier: qualifier}
}

// For returns the Service key for type T.
func For[T any]() Service {
	return Service{serviceType: reflect.TypeOf((*T)(nil)).Elem()}
}

// Keyed returns the Service key for type T qualified by the given key.
func Keyed[T any](qualifier any) Service {
	return Service{serviceType: reflect.TypeOf((*T)(nil)).Elem(), qualifier: qualifier}
}

// Type returns the Go type this service identifies.
func (s Service) Type() reflect.Type {
	return s.serviceType
}

// Qualifier returns the optional qualifier, or nil for plain services.
func (s Service) Qualifier() any {
	return s.qualifier
}

// IsKeyed reports whether the service carries a qualifier.
func (s Service) IsKeyed() bool {
	return s.qualifier != nil
}

// IsZero reports whether the service has no type.
func (s Service) IsZero() bool {
	return s.serviceType == nil
}

// typeOf is reflect.TypeOf with nil-safety for error reporting.
func typeOf(v any) reflect.Type {
	if v == nil {
		return nil
	}
	return reflect.TypeOf(v)
}

func (s Service) String() string {
	if s.serviceType == nil {
		return "<nil service>"
	}

	if s.qualifier != nil {
		return fmt.Sprintf("%s[%v]", formatType(s.serviceType), s.qualifier)
	}

	return formatType(s.serviceType)
}

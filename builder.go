package capreg

import (
	"context"
	"fmt"
	"slices"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Option represents a functional option for configuring a ModuleRegistry
type Option func(*ModuleRegistry) error

// ObserverFunc is a functional observer that can be registered with the registry
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

// WithDescriptors appends rows to the descriptor table. Rows keep the order
// given; assembly builds modules in that order.
func WithDescriptors(descs ...ModuleDescriptor) Option {
	return func(r *ModuleRegistry) error {
		r.descriptors = append(r.descriptors, descs...)
		return nil
	}
}

// WithFactory replaces the factory of an existing descriptor. The kind must
// be present in the table once all options are applied.
func WithFactory(kind ModuleKind, f Factory) Option {
	return func(r *ModuleRegistry) error {
		if f == nil {
			return fmt.Errorf("%w: nil factory for %s", ErrInvalidDescriptor, kind)
		}
		r.overrides[kind] = f
		return nil
	}
}

// WithInvariants replaces the composition rules checked at construction and
// after every assembly.
func WithInvariants(inv Invariants) Option {
	return func(r *ModuleRegistry) error {
		r.invariants = Invariants{
			StorageKinds:  slices.Clone(inv.StorageKinds),
			ElevatedKinds: slices.Clone(inv.ElevatedKinds),
		}
		return nil
	}
}

// WithObserver registers observers notified of assembly events.
func WithObserver(observers ...Observer) Option {
	return func(r *ModuleRegistry) error {
		for _, o := range observers {
			if o == nil {
				return ErrObserverNil
			}
			r.observers = append(r.observers, o)
		}
		return nil
	}
}

// WithObserverFunc registers a function as an observer under id.
func WithObserverFunc(id string, fn ObserverFunc) Option {
	if fn == nil {
		return func(*ModuleRegistry) error { return ErrObserverNil }
	}
	return WithObserver(NewFunctionalObserver(id, fn))
}

package capreg

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ModuleRegistry maps a registration context to the modules that session is
// allowed to use. The descriptor table is fixed at construction and only
// read afterwards, so one registry serves any number of concurrent sessions.
type ModuleRegistry struct {
	logger      Logger
	descriptors []ModuleDescriptor
	invariants  Invariants
	observers   []Observer
	overrides   map[ModuleKind]Factory
}

// NewModuleRegistry creates a registry from the given options and validates
// the resulting descriptor table against its invariants.
func NewModuleRegistry(logger Logger, opts ...Option) (*ModuleRegistry, error) {
	if logger == nil {
		return nil, ErrLoggerNotSet
	}

	r := &ModuleRegistry{
		logger:     logger,
		invariants: StandardInvariants(),
		overrides:  make(map[ModuleKind]Factory),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	for kind, f := range r.overrides {
		i := slices.IndexFunc(r.descriptors, func(d ModuleDescriptor) bool { return d.Kind == kind })
		if i < 0 {
			return nil, fmt.Errorf("%w: no descriptor for overridden kind %s", ErrInvalidDescriptor, kind)
		}
		r.descriptors[i].Factory = f
	}
	r.overrides = nil

	if err := ValidateDescriptors(r.descriptors, r.invariants); err != nil {
		return nil, err
	}
	return r, nil
}

// Descriptors returns a copy of the descriptor table.
func (r *ModuleRegistry) Descriptors() []ModuleDescriptor {
	return slices.Clone(r.descriptors)
}

// Plan returns the kinds Assemble would build for rc, in order, without
// constructing anything.
func (r *ModuleRegistry) Plan(rc RegistrationContext) ([]ModuleKind, error) {
	trust, _, _, err := trustOf(rc)
	if err != nil {
		return nil, err
	}
	return planKinds(r.descriptors, trust), nil
}

// Assemble builds every module the session described by rc may use. Each
// eligible factory runs exactly once, in table order. If any factory fails
// the whole assembly fails with a *ModuleConstructionError and no set is
// returned. A nil rt gets a fresh runtime context without configuration.
func (r *ModuleRegistry) Assemble(rt *RuntimeContext, rc RegistrationContext) (*AssembledModuleSet, error) {
	trust, manifest, props, err := trustOf(rc)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		rt = NewRuntimeContext(nil, r.logger)
	}

	ctx := context.Background()
	data := AssemblyEventData{SessionID: rt.SessionID, Mode: trust.Mode.String(), Verified: trust.Verified}
	r.emit(ctx, rt.SessionID, EventTypeAssemblyStarted, data)

	args := FactoryArgs{Runtime: rt, Manifest: manifest, Properties: props}
	set := newAssembledModuleSet(len(r.descriptors))
	for _, d := range r.descriptors {
		if !d.Eligible(trust) {
			continue
		}
		m, err := construct(d, args)
		if err != nil {
			r.logger.Error("Module construction failed", "kind", d.Kind, "session", rt.SessionID, "error", err)
			data.Error = err.Error()
			data.FailedKind = d.Kind
			r.emit(ctx, rt.SessionID, EventTypeAssemblyFailed, data)
			return nil, err
		}
		set.add(d.Kind, m)
		r.logger.Debug("Constructed module", "kind", d.Kind, "name", m.Name(), "session", rt.SessionID)
		r.emit(ctx, rt.SessionID, EventTypeModuleConstructed, ModuleEventData{SessionID: rt.SessionID, Kind: d.Kind, Name: m.Name()})
	}

	if err := r.invariants.Check(trust, set.kinds); err != nil {
		r.logger.Error("Assembled set violates trust policy", "session", rt.SessionID, "error", err)
		data.Error = err.Error()
		r.emit(ctx, rt.SessionID, EventTypeAssemblyFailed, data)
		return nil, err
	}

	data.Kinds = set.Kinds()
	r.logger.Info("Assembled modules", "mode", trust.Mode, "verified", trust.Verified, "count", set.Len(), "session", rt.SessionID)
	r.emit(ctx, rt.SessionID, EventTypeAssemblyCompleted, data)
	return set, nil
}

// construct runs one factory, turning failures, nil results and panics into a
// *ModuleConstructionError for the descriptor's kind.
func construct(d ModuleDescriptor, args FactoryArgs) (m Module, err error) {
	defer func() {
		if p := recover(); p != nil {
			m = nil
			err = &ModuleConstructionError{Kind: d.Kind, Cause: fmt.Errorf("%w: %v", ErrFactoryPanic, p)}
		}
	}()

	m, err = d.Factory(args)
	if err != nil {
		var mce *ModuleConstructionError
		if errors.As(err, &mce) && mce.Kind == d.Kind {
			return nil, err
		}
		return nil, &ModuleConstructionError{Kind: d.Kind, Cause: err}
	}
	if m == nil {
		return nil, &ModuleConstructionError{Kind: d.Kind, Cause: ErrNilModule}
	}
	return m, nil
}

// emit notifies observers in registration order. Every event carries the
// session id as the EventExtensionSession extension.
func (r *ModuleRegistry) emit(ctx context.Context, sessionID, eventType string, data any) {
	if len(r.observers) == 0 {
		return
	}
	event := NewCloudEvent(eventType, EventSource, data, map[string]any{EventExtensionSession: sessionID})
	if err := ValidateCloudEvent(event); err != nil {
		r.logger.Error("Dropping invalid event", "event", eventType, "error", err)
		return
	}
	for _, o := range r.observers {
		r.notify(ctx, o, event)
	}
}

func (r *ModuleRegistry) notify(ctx context.Context, o Observer, event CloudEvent) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Observer panicked", "observerID", o.ObserverID(), "event", event.Type(), "panic", p)
		}
	}()
	if err := o.OnEvent(ctx, event); err != nil {
		r.logger.Error("Observer error", "observerID", o.ObserverID(), "event", event.Type(), "error", err)
	}
}

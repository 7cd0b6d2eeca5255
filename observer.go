package capreg

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer is notified of assembly events. Events are CloudEvents so they can
// be forwarded to external systems unchanged.
type Observer interface {
	// OnEvent is called synchronously from Assemble. Observers should
	// return quickly; an error is logged and does not affect assembly.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// Event types emitted by the registry, in reverse domain notation.
const (
	EventTypeAssemblyStarted   = "com.capreg.assembly.started"
	EventTypeAssemblyCompleted = "com.capreg.assembly.completed"
	EventTypeAssemblyFailed    = "com.capreg.assembly.failed"
	EventTypeModuleConstructed = "com.capreg.module.constructed"
)

// EventSource is the CloudEvents source of registry events.
const EventSource = "capreg/registry"

// EventExtensionSession is the CloudEvents extension holding the session id.
const EventExtensionSession = "capregsession"

// AssemblyEventData is the payload of assembly events.
type AssemblyEventData struct {
	SessionID  string       `json:"sessionId,omitempty"`
	Mode       string       `json:"mode"`
	Verified   bool         `json:"verified"`
	Kinds      []ModuleKind `json:"kinds,omitempty"`
	Error      string       `json:"error,omitempty"`
	FailedKind ModuleKind   `json:"failedKind,omitempty"`
}

// ModuleEventData is the payload of EventTypeModuleConstructed.
type ModuleEventData struct {
	SessionID string     `json:"sessionId,omitempty"`
	Kind      ModuleKind `json:"kind"`
	Name      string     `json:"name"`
}

// FunctionalObserver provides a simple way to create observers using functions.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates a new observer that uses the provided function
// to handle events.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}

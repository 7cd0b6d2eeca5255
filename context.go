package capreg

import (
	"fmt"
	"strings"
)

// TrustMode classifies the session asking for modules.
type TrustMode int

const (
	// KernelMode is the unprivileged, sandboxed host session.
	KernelMode TrustMode = iota
	// TaskMode is a session scoped to a single task and its manifest.
	TaskMode
)

func (m TrustMode) String() string {
	switch m {
	case KernelMode:
		return "kernel"
	case TaskMode:
		return "task"
	default:
		return fmt.Sprintf("TrustMode(%d)", int(m))
	}
}

// ParseTrustMode parses "kernel" or "task", case-insensitively.
func ParseTrustMode(s string) (TrustMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kernel":
		return KernelMode, nil
	case "task":
		return TaskMode, nil
	default:
		return 0, fmt.Errorf("%w: unknown trust mode %q", ErrInvalidContext, s)
	}
}

// Trust is what eligibility predicates see of a registration context.
type Trust struct {
	Mode     TrustMode
	Verified bool
}

// TaskProperties are host-supplied properties of a task session. The registry
// passes them through to factories without looking at them.
type TaskProperties map[string]any

// RegistrationContext is the input to Assemble. It is either a KernelContext
// or a TaskContext; no other implementations exist.
type RegistrationContext interface {
	Mode() TrustMode
	registrationContext()
}

// KernelContext is the registration context of the kernel session. It carries
// no manifest and no properties.
type KernelContext struct{}

// Mode returns KernelMode.
func (KernelContext) Mode() TrustMode { return KernelMode }

func (KernelContext) registrationContext() {}

// TaskContext is the registration context of a task session.
type TaskContext struct {
	Properties TaskProperties
	Manifest   Manifest
}

// NewTaskContext builds a task context. A nil properties map or manifest is
// replaced by an empty one so both are always present.
func NewTaskContext(props TaskProperties, manifest Manifest) TaskContext {
	if props == nil {
		props = TaskProperties{}
	}
	if manifest == nil {
		manifest = Manifest{}
	}
	return TaskContext{Properties: props, Manifest: manifest}
}

// Mode returns TaskMode.
func (TaskContext) Mode() TrustMode { return TaskMode }

func (TaskContext) registrationContext() {}

// trustOf validates rc and returns the trust it grants together with the
// manifest and properties handed to factories.
func trustOf(rc RegistrationContext) (Trust, Manifest, TaskProperties, error) {
	switch c := rc.(type) {
	case KernelContext:
		return Trust{Mode: KernelMode}, nil, nil, nil
	case *KernelContext:
		if c == nil {
			return Trust{}, nil, nil, fmt.Errorf("%w: nil kernel context", ErrInvalidContext)
		}
		return Trust{Mode: KernelMode}, nil, nil, nil
	case TaskContext:
		return taskTrust(c)
	case *TaskContext:
		if c == nil {
			return Trust{}, nil, nil, fmt.Errorf("%w: nil task context", ErrInvalidContext)
		}
		return taskTrust(*c)
	case nil:
		return Trust{}, nil, nil, fmt.Errorf("%w: context is nil", ErrInvalidContext)
	default:
		return Trust{}, nil, nil, fmt.Errorf("%w: unsupported context type %T", ErrInvalidContext, rc)
	}
}

func taskTrust(c TaskContext) (Trust, Manifest, TaskProperties, error) {
	if c.Manifest == nil {
		return Trust{}, nil, nil, fmt.Errorf("%w: task context has no manifest", ErrInvalidContext)
	}
	if c.Properties == nil {
		return Trust{}, nil, nil, fmt.Errorf("%w: task context has no properties", ErrInvalidContext)
	}
	return Trust{Mode: TaskMode, Verified: c.Manifest.IsVerified()}, c.Manifest, c.Properties, nil
}

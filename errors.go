package capreg

import (
	"errors"
	"fmt"
)

// Registry errors
var (
	// Context errors
	ErrInvalidContext = errors.New("invalid registration context")
	ErrLoggerNotSet   = errors.New("logger is not set")

	// Descriptor table errors
	ErrInvalidDescriptor = errors.New("invalid module descriptor")
	ErrDuplicateKind     = errors.New("duplicate module kind")
	ErrPolicyViolation   = errors.New("trust policy violation")

	// Construction errors
	ErrModuleConstruction = errors.New("module construction failed")
	ErrNilModule          = errors.New("factory returned nil module")
	ErrFactoryPanic       = errors.New("factory panicked")

	// Manifest errors
	ErrManifestEmpty = errors.New("manifest document is empty")

	// Config validation errors
	ErrConfigNil                  = errors.New("config is nil")
	ErrConfigNotPointer           = errors.New("config must be a pointer")
	ErrConfigNotStruct            = errors.New("config must be a struct")
	ErrConfigRequiredFieldMissing = errors.New("required field is missing")
	ErrUnsupportedTypeForDefault  = errors.New("unsupported type for default value")
	ErrDefaultValueParseError     = errors.New("failed to parse default value")
	ErrConfigFeederError          = errors.New("config feeder error")

	// Observer errors
	ErrObserverNil = errors.New("observer is nil")
)

// ModuleConstructionError reports which module kind failed to construct during
// assembly. It matches ErrModuleConstruction with errors.Is and unwraps to the
// underlying cause.
type ModuleConstructionError struct {
	Kind  ModuleKind
	Cause error
}

func (e *ModuleConstructionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrModuleConstruction, e.Kind, e.Cause)
}

// Unwrap returns the factory's error.
func (e *ModuleConstructionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrModuleConstruction.
func (e *ModuleConstructionError) Is(target error) bool {
	return target == ErrModuleConstruction
}

package capreg

import (
	"fmt"
	"slices"
)

// Eligibility decides whether a descriptor's module is built for a session.
type Eligibility func(t Trust) bool

// FactoryArgs are the arguments available to a module factory. Manifest and
// Properties are nil in kernel sessions. The same instances are passed to
// every factory of one assembly.
type FactoryArgs struct {
	Runtime    *RuntimeContext
	Manifest   Manifest
	Properties TaskProperties
}

// Factory constructs one module.
type Factory func(args FactoryArgs) (Module, error)

// ModuleDescriptor is one row of the capability table: a module kind, the
// trust under which it may be built, and how to build it.
type ModuleDescriptor struct {
	Kind     ModuleKind
	Eligible Eligibility
	Factory  Factory
	Doc      string
}

// Always is eligible in every session.
func Always(Trust) bool { return true }

// Never is eligible in no session. It marks reserved table rows.
func Never(Trust) bool { return false }

// TaskOnly is eligible in task sessions, verified or not.
func TaskOnly(t Trust) bool { return t.Mode == TaskMode }

// VerifiedTask is eligible in task sessions whose manifest is verified.
func VerifiedTask(t Trust) bool { return t.Mode == TaskMode && t.Verified }

// UnverifiedTask is eligible in task sessions whose manifest is not verified.
func UnverifiedTask(t Trust) bool { return t.Mode == TaskMode && !t.Verified }

// TrustStates lists every distinct trust a session can have.
var TrustStates = []Trust{
	{Mode: KernelMode},
	{Mode: TaskMode, Verified: true},
	{Mode: TaskMode, Verified: false},
}

// Invariants are the composition rules every assembly must satisfy.
type Invariants struct {
	// StorageKinds provide the storage capability. A task assembly holds
	// exactly one of them, a kernel assembly none.
	StorageKinds []ModuleKind
	// ElevatedKinds are never assembled for an unverified task.
	ElevatedKinds []ModuleKind
}

// StandardInvariants are the rules of the standard trust policy.
func StandardInvariants() Invariants {
	return Invariants{
		StorageKinds:  slices.Clone(StorageKinds),
		ElevatedKinds: slices.Clone(ElevatedKinds),
	}
}

// Check verifies the kinds assembled for trust t.
func (inv Invariants) Check(t Trust, kinds []ModuleKind) error {
	seen := make(map[ModuleKind]bool, len(kinds))
	storage := 0
	for _, k := range kinds {
		if seen[k] {
			return fmt.Errorf("%w: %s", ErrDuplicateKind, k)
		}
		seen[k] = true
		if slices.Contains(inv.StorageKinds, k) {
			storage++
		}
		if !VerifiedTask(t) && slices.Contains(inv.ElevatedKinds, k) {
			return fmt.Errorf("%w: elevated module %s assembled for %s session (verified=%t)", ErrPolicyViolation, k, t.Mode, t.Verified)
		}
	}

	if len(inv.StorageKinds) == 0 {
		return nil
	}
	switch t.Mode {
	case KernelMode:
		if storage != 0 {
			return fmt.Errorf("%w: kernel session assembled %d storage modules", ErrPolicyViolation, storage)
		}
	case TaskMode:
		if storage != 1 {
			return fmt.Errorf("%w: task session assembled %d storage modules, want exactly 1", ErrPolicyViolation, storage)
		}
	}
	return nil
}

// ValidateDescriptors checks a descriptor table: every row complete, no kind
// listed twice, and the invariants holding for every trust state.
func ValidateDescriptors(descs []ModuleDescriptor, inv Invariants) error {
	seen := make(map[ModuleKind]bool, len(descs))
	for i, d := range descs {
		if d.Kind == "" {
			return fmt.Errorf("%w: row %d has no kind", ErrInvalidDescriptor, i)
		}
		if d.Eligible == nil {
			return fmt.Errorf("%w: %s has no eligibility", ErrInvalidDescriptor, d.Kind)
		}
		if d.Factory == nil {
			return fmt.Errorf("%w: %s has no factory", ErrInvalidDescriptor, d.Kind)
		}
		if seen[d.Kind] {
			return fmt.Errorf("%w: %s", ErrDuplicateKind, d.Kind)
		}
		seen[d.Kind] = true
	}

	for _, t := range TrustStates {
		if err := inv.Check(t, planKinds(descs, t)); err != nil {
			return fmt.Errorf("table rejected for %s session (verified=%t): %w", t.Mode, t.Verified, err)
		}
	}
	return nil
}

func planKinds(descs []ModuleDescriptor, t Trust) []ModuleKind {
	kinds := make([]ModuleKind, 0, len(descs))
	for _, d := range descs {
		if d.Eligible(t) {
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}

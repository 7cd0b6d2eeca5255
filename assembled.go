package capreg

import "slices"

// AssembledModuleSet is the result of one assembly, in the shape the host
// runtime bridge registers: native modules, script-module declarations and
// view-manager declarations. The latter two are always empty.
type AssembledModuleSet struct {
	NativeModules []Module
	ScriptModules []ScriptModule
	ViewManagers  []ViewManager

	kinds []ModuleKind
}

func newAssembledModuleSet(capacity int) *AssembledModuleSet {
	return &AssembledModuleSet{
		NativeModules: make([]Module, 0, capacity),
		ScriptModules: []ScriptModule{},
		ViewManagers:  []ViewManager{},
		kinds:         make([]ModuleKind, 0, capacity),
	}
}

func (s *AssembledModuleSet) add(kind ModuleKind, m Module) {
	s.NativeModules = append(s.NativeModules, m)
	s.kinds = append(s.kinds, kind)
}

// Kinds returns the kind of each native module, in assembly order.
func (s *AssembledModuleSet) Kinds() []ModuleKind {
	return slices.Clone(s.kinds)
}

// Has reports whether a module of the given kind was assembled.
func (s *AssembledModuleSet) Has(kind ModuleKind) bool {
	return slices.Contains(s.kinds, kind)
}

// Module returns the assembled module of the given kind.
func (s *AssembledModuleSet) Module(kind ModuleKind) (Module, bool) {
	i := slices.Index(s.kinds, kind)
	if i < 0 {
		return nil, false
	}
	return s.NativeModules[i], true
}

// Len returns the number of native modules.
func (s *AssembledModuleSet) Len() int { return len(s.NativeModules) }

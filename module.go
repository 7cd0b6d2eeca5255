// Package capreg provides a trust-gated capability registry.
// Given a registration context describing who is asking (an unprivileged kernel
// session or a task session with a manifest), it assembles the exact set of
// service modules that session may use and hands them to the host runtime
// bridge.
//
// The candidate modules are declared once as a table of descriptors. Each
// descriptor pairs a module kind with an eligibility predicate over the
// session's trust and a factory. Assembly filters the table and invokes the
// surviving factories in order.
//
// Basic usage:
//
//	reg, err := capreg.NewModuleRegistry(logger, capreg.WithDescriptors(catalog.Standard()...))
//	if err != nil {
//		log.Fatal(err)
//	}
//	set, err := reg.Assemble(nil, capreg.NewTaskContext(props, manifest))
package capreg

// Module is an opaque service handle produced by a factory.
// The registry never inspects a module beyond its name; the host runtime
// bridge owns it once Assemble returns.
type Module interface {
	// Name returns the name the host bridge exposes the module under.
	Name() string
}

// ScriptModule declares a script-side module for the host bridge.
// This registry contributes none.
type ScriptModule interface {
	Name() string
}

// ViewManager declares a native view manager for the host bridge.
// This registry contributes none.
type ViewManager interface {
	Name() string
}

// ModuleKind identifies a candidate module within the descriptor table.
type ModuleKind string

// Module kinds known to the standard trust policy.
const (
	// Baseline
	KindURLHandler     ModuleKind = "urlHandler"
	KindConstants      ModuleKind = "constants"
	KindShake          ModuleKind = "shake"
	KindFontLoader     ModuleKind = "fontLoader"
	KindKeyboard       ModuleKind = "keyboard"
	KindUtil           ModuleKind = "util"
	KindNativeAnimated ModuleKind = "nativeAnimated"

	// Reserved for kernel sessions, never wired.
	KindKernel ModuleKind = "kernel"

	// Elevated, verified task sessions only
	KindStorage       ModuleKind = "storage"
	KindNotifications ModuleKind = "notifications"
	KindContacts      ModuleKind = "contacts"
	KindFileSystem    ModuleKind = "fileSystem"
	KindLocation      ModuleKind = "location"
	KindCrypto        ModuleKind = "crypto"
	KindImagePicker   ModuleKind = "imagePicker"
	KindFacebook      ModuleKind = "facebook"
	KindFabric        ModuleKind = "fabric"

	// Unverified task sessions only
	KindUnsignedStorage ModuleKind = "unsignedStorage"

	// Every task session
	KindImageCropper ModuleKind = "imageCropper"
)

// StorageKinds are the kinds providing the storage capability. Every task
// assembly contains exactly one of them and kernel assemblies contain none.
var StorageKinds = []ModuleKind{KindStorage, KindUnsignedStorage}

// ElevatedKinds are the kinds that may perform sensitive or persistent
// operations and must never be constructed for an unverified manifest.
var ElevatedKinds = []ModuleKind{
	KindStorage,
	KindNotifications,
	KindContacts,
	KindFileSystem,
	KindLocation,
	KindCrypto,
	KindImagePicker,
	KindFacebook,
	KindFabric,
}

func (k ModuleKind) String() string { return string(k) }

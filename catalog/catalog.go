// Package catalog declares the standard capability table: which service
// modules a kernel session, a verified task and an unverified task receive,
// and how each module is built.
package catalog

import (
	"github.com/GoCodeAlone/capreg"
	"github.com/GoCodeAlone/capreg/modules"
)

// Standard returns the standard descriptor table. Baseline modules come
// first, then the reserved kernel row, the elevated modules of verified
// tasks, the unsigned storage fallback and finally the image cropper every
// task receives.
func Standard() []capreg.ModuleDescriptor {
	return []capreg.ModuleDescriptor{
		{
			Kind:     capreg.KindURLHandler,
			Eligible: capreg.Always,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewURLHandler(a.Runtime))
			},
			Doc: "opens and validates URLs",
		},
		{
			Kind:     capreg.KindConstants,
			Eligible: capreg.Always,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewConstants(a.Runtime, a.Properties, a.Manifest))
			},
			Doc: "environment constants, manifest and task properties",
		},
		{
			Kind:     capreg.KindShake,
			Eligible: capreg.Always,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewShake(a.Runtime))
			},
			Doc: "shake gesture detection",
		},
		{
			Kind:     capreg.KindFontLoader,
			Eligible: capreg.Always,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewFontLoader(a.Runtime, a.Manifest))
			},
			Doc: "font loading scoped by manifest id",
		},
		{
			Kind:     capreg.KindKeyboard,
			Eligible: capreg.Always,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewKeyboard(a.Runtime))
			},
			Doc: "soft keyboard control",
		},
		{
			Kind:     capreg.KindUtil,
			Eligible: capreg.Always,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewUtil(a.Runtime))
			},
			Doc: "generic utilities",
		},
		{
			Kind:     capreg.KindNativeAnimated,
			Eligible: capreg.Always,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewNativeAnimated(a.Runtime))
			},
			Doc: "native animation driver",
		},
		{
			// Reserved for a kernel-only module; not wired.
			Kind:     capreg.KindKernel,
			Eligible: capreg.Never,
			Factory:  reserved,
			Doc:      "reserved kernel extension point",
		},
		{
			Kind:     capreg.KindStorage,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewStorage(a.Runtime, a.Manifest))
			},
			Doc: "persistent storage scoped by manifest id",
		},
		{
			Kind:     capreg.KindNotifications,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewNotifications(a.Runtime, a.Manifest))
			},
			Doc: "local notifications on the task channel",
		},
		{
			Kind:     capreg.KindContacts,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewContacts(a.Runtime))
			},
			Doc: "address book access",
		},
		{
			Kind:     capreg.KindFileSystem,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewFileSystem(a.Runtime, a.Manifest))
			},
			Doc: "private file tree scoped by manifest id",
		},
		{
			Kind:     capreg.KindLocation,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewLocation(a.Runtime))
			},
			Doc: "device location",
		},
		{
			Kind:     capreg.KindCrypto,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewCrypto(a.Runtime))
			},
			Doc: "digests and random identifiers",
		},
		{
			Kind:     capreg.KindImagePicker,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewImagePicker(a.Runtime))
			},
			Doc: "image picking",
		},
		{
			Kind:     capreg.KindFacebook,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewFacebook(a.Runtime))
			},
			Doc: "social identity integration",
		},
		{
			Kind:     capreg.KindFabric,
			Eligible: capreg.VerifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewFabric(a.Runtime, a.Properties))
			},
			Doc: "crash reporting configured by task properties",
		},
		{
			Kind:     capreg.KindUnsignedStorage,
			Eligible: capreg.UnverifiedTask,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewUnsignedStorage(a.Runtime))
			},
			Doc: "session-only storage for unverified tasks",
		},
		{
			Kind:     capreg.KindImageCropper,
			Eligible: capreg.TaskOnly,
			Factory: func(a capreg.FactoryArgs) (capreg.Module, error) {
				return wrap(modules.NewImageCropper(a.Runtime))
			},
			Doc: "image cropping",
		},
	}
}

// NewRegistry creates a registry serving the standard table. Extra options
// are applied after the table is installed, so WithFactory can replace any
// standard factory.
func NewRegistry(logger capreg.Logger, opts ...capreg.Option) (*capreg.ModuleRegistry, error) {
	all := append([]capreg.Option{capreg.WithDescriptors(Standard()...)}, opts...)
	return capreg.NewModuleRegistry(logger, all...)
}

// wrap converts a typed constructor result into a factory result without
// leaking a typed nil into the Module interface.
func wrap[M capreg.Module](m M, err error) (capreg.Module, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}

func reserved(capreg.FactoryArgs) (capreg.Module, error) {
	return nil, capreg.ErrInvalidDescriptor
}

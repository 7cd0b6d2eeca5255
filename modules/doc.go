// Package modules provides the service modules the standard trust policy
// hands to the host bridge. Each module carries only what its construction
// contract needs: constructors take the runtime context plus the manifest
// and task properties when the module is scoped by them, and fail when a
// required input is missing.
package modules

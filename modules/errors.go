package modules

import "errors"

// Construction errors
var (
	ErrRuntimeRequired   = errors.New("runtime context is required")
	ErrInvalidManifestID = errors.New("manifest id must be a non-empty string")
	ErrDataDirRequired   = errors.New("runtime data dir is required")
	ErrInvalidProperty   = errors.New("invalid task property")
)

// Operation errors
var (
	ErrInvalidURL      = errors.New("invalid url")
	ErrPathEscapesRoot = errors.New("path escapes module root")
	ErrInvalidCrop     = errors.New("invalid crop rectangle")
)

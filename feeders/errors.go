package feeders

import "errors"

// Static error definitions for feeders
var (
	ErrFeedTargetInvalid = errors.New("feed target must be a non-nil pointer")
	ErrFileRead          = errors.New("failed to read config file")
	ErrFileDecode        = errors.New("failed to decode config file")
	ErrKeyRemarshal      = errors.New("failed to re-encode config key")
)

// ErrEnvInvalidStructure indicates that the provided structure is not valid for environment variable processing
var ErrEnvInvalidStructure = errors.New("env: invalid structure")

// ErrEnvEmptyPrefixAndSuffix indicates that both prefix and suffix cannot be empty
var ErrEnvEmptyPrefixAndSuffix = errors.New("env: prefix or suffix cannot be empty")

// ErrEnvFieldCannotBeSet indicates a tagged field that is not settable
var ErrEnvFieldCannotBeSet = errors.New("env: field cannot be set")

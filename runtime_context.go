package capreg

import (
	"github.com/google/uuid"
)

// RuntimeContext is the host runtime handle passed to every module factory.
// One RuntimeContext belongs to one bridge session.
type RuntimeContext struct {
	SessionID string
	Config    RuntimeConfig
	Logger    Logger
}

// NewRuntimeContext creates the runtime handle for a new bridge session. A nil
// cfg yields a configuration holding only the defaults.
func NewRuntimeContext(cfg *RuntimeConfig, logger Logger) *RuntimeContext {
	rc := &RuntimeContext{
		SessionID: newSessionID(),
		Logger:    logger,
	}
	if cfg != nil {
		rc.Config = *cfg
	} else {
		// RuntimeConfig defaults only hold supported kinds.
		_ = ProcessConfigDefaults(&rc.Config)
	}
	return rc
}

// newSessionID generates a time-ordered session identifier using UUIDv7.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

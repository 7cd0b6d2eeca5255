package capreg

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCloudEvent(t *testing.T) {
	event := NewCloudEvent(EventTypeModuleConstructed, EventSource,
		ModuleEventData{SessionID: "s1", Kind: KindUtil, Name: "Util"},
		map[string]any{"sessionid": "s1"})

	require.NoError(t, ValidateCloudEvent(event))
	assert.Equal(t, EventTypeModuleConstructed, event.Type())
	assert.Equal(t, "s1", event.Extensions()["sessionid"])

	id, err := uuid.Parse(event.ID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	var data ModuleEventData
	require.NoError(t, event.DataAs(&data))
	assert.Equal(t, KindUtil, data.Kind)
}

func TestValidateCloudEvent_Invalid(t *testing.T) {
	event := NewCloudEvent("", EventSource, nil, nil)
	assert.Error(t, ValidateCloudEvent(event))
}

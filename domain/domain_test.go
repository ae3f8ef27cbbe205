package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	data, err := Frame(EventNewUser, map[string]string{"userName": "B"})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, EventNewUser, env.Event)
	assert.JSONEq(t, `{"userName":"B"}`, string(env.Payload))
}

func TestReserved(t *testing.T) {
	assert.True(t, Reserved(EventManaging))
	assert.True(t, Reserved(EventNewUser))
	assert.True(t, Reserved(EventUserLeft))
	assert.False(t, Reserved("move"))
	assert.False(t, Reserved(""))
}

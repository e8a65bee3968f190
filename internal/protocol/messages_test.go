package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"t":"move-token","id":"t1","x":3,"y":4}`))
	require.NoError(t, err)
	assert.Equal(t, TypeMoveToken, msg.T)

	var p MoveTokenPayload
	require.NoError(t, msg.Bind(&p))
	assert.Equal(t, MoveTokenPayload{ID: "t1", X: 3, Y: 4}, p)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"id":"t1"}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`{"t":"  "}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingType)
}

func TestBindRejectsWrongShape(t *testing.T) {
	msg, err := Decode([]byte(`{"t":"grid-size","size":"huge"}`))
	require.NoError(t, err)

	var p GridSizePayload
	err = msg.Bind(&p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid-size")
}

func TestNewFlattensPayload(t *testing.T) {
	msg, err := New(TypeRTCSignal, RTCSignalPayload{Target: "b", Signal: json.RawMessage(`{"sdp":"x"}`)})
	require.NoError(t, err)

	assert.JSONEq(t, `{"t":"rtc-signal","target":"b","signal":{"sdp":"x"}}`, string(msg.Raw))

	empty, err := New(TypeHeartbeat, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"heartbeat"}`, string(empty.Raw))
}

func TestIsAuthFamily(t *testing.T) {
	for _, typ := range []Type{TypeAuthenticate, TypeElevateToDM, TypeRevokeDM, TypeSetDMPassword} {
		assert.True(t, IsAuthFamily(typ), typ)
	}
	assert.False(t, IsAuthFamily(TypeHeartbeat))
	assert.False(t, IsAuthFamily(TypeSetRoomPassword))
}

func TestOutboundShapes(t *testing.T) {
	b, err := Encode(PasswordUpdated{T: TypeDMPasswordUpdated, UpdatedAt: 10})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"dm-password-updated","updatedAt":10}`, string(b))

	b, err = Encode(DMStatus{T: TypeDMStatus})
	require.NoError(t, err)
	assert.JSONEq(t, `{"t":"dm-status","isDM":false}`, string(b))
}

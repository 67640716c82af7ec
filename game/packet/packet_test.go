package packet

import (
	"encoding/json"
	"testing"

	"github.com/kasuganosora/my2dworld/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Envelope(t *testing.T) {
	data, err := Encode(TypePlayerSpeech, PlayerSpeech{UserID: 3, Username: "alice", Message: "hi"})
	require.NoError(t, err)

	var pkt Packet
	require.NoError(t, json.Unmarshal(data, &pkt))
	assert.Equal(t, TypePlayerSpeech, pkt.Type)
	assert.JSONEq(t, `{"user_id":3,"username":"alice","message":"hi"}`, string(pkt.Payload))
}

func TestEncode_NilPayload(t *testing.T) {
	data, err := Encode(TypeValidateAuthentication, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "payload")
}

func TestDecode_EmptyPayload(t *testing.T) {
	req := MapChangeReq{MapID: 9}
	require.NoError(t, Decode(nil, &req))
	require.NoError(t, Decode(json.RawMessage("null"), &req))
	assert.Equal(t, int64(9), req.MapID)

	require.NoError(t, Decode(json.RawMessage(`{"map_id":2,"exit_id":4}`), &req))
	assert.Equal(t, MapChangeReq{MapID: 2, ExitID: 4}, req)
	assert.Error(t, Decode(json.RawMessage(`{"map_id":"x"}`), &req))
}

func TestNewEquipment(t *testing.T) {
	weapon := int64(7)
	eq := NewEquipment(&model.User{WeaponItemID: &weapon})
	assert.Len(t, eq, len(model.ItemTypes))
	require.NotNil(t, eq["Weapon"])
	assert.Equal(t, int64(7), *eq["Weapon"])
	assert.Nil(t, eq["Head"])
}

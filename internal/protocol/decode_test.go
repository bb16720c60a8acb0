package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		raw     string
		wantErr error
		check   func(t *testing.T, cmd *protocol.Command)
	}{
		{
			name: "chat is trimmed",
			raw:  `{"type":"CHAT","data":{"message":"  hello  "}}`,
			check: func(t *testing.T, cmd *protocol.Command) {
				p, ok := cmd.Payload.(*protocol.ChatPayload)
				require.True(t, ok)
				assert.Equal(t, "hello", p.Message)
			},
		},
		{
			name: "search clue",
			raw:  `{"type":"SEARCH_CLUE","data":{"clue_id":"` + id.String() + `","public":true}}`,
			check: func(t *testing.T, cmd *protocol.Command) {
				p := cmd.Payload.(*protocol.SearchCluePayload)
				assert.Equal(t, id, p.ClueID)
				assert.True(t, p.Public)
			},
		},
		{
			name: "empty payload without data",
			raw:  `{"type":"START_GAME"}`,
			check: func(t *testing.T, cmd *protocol.Command) {
				assert.IsType(t, &protocol.EmptyPayload{}, cmd.Payload)
			},
		},
		{
			name: "ready false is kept",
			raw:  `{"type":"READY","data":{"ready":false}}`,
			check: func(t *testing.T, cmd *protocol.Command) {
				p := cmd.Payload.(*protocol.ReadyPayload)
				require.NotNil(t, p.Ready)
				assert.False(t, *p.Ready)
			},
		},
		{name: "not json", raw: `{`, wantErr: domain.ErrMalformedMessage},
		{name: "missing type", raw: `{"data":{}}`, wantErr: domain.ErrMalformedMessage},
		{name: "unknown type", raw: `{"type":"FLY"}`, wantErr: domain.ErrUnknownMessageType},
		{name: "blank chat", raw: `{"type":"CHAT","data":{"message":"   "}}`, wantErr: domain.ErrInvalidPayload},
		{name: "ready missing", raw: `{"type":"READY","data":{}}`, wantErr: domain.ErrInvalidPayload},
		{name: "zero uuid", raw: `{"type":"GAME_VOTE","data":{"target_user_id":"00000000-0000-0000-0000-000000000000"}}`, wantErr: domain.ErrInvalidPayload},
		{name: "wrong field type", raw: `{"type":"SELECT_CHARACTER","data":{"character_id":5}}`, wantErr: domain.ErrInvalidPayload},
		{name: "duration out of range", raw: `{"type":"UPDATE_ROOM_SETTINGS","data":{"duration_mins":0}}`, wantErr: domain.ErrInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := protocol.Decode([]byte(tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, domain.KindValidation, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, cmd)
		})
	}
}

func TestEveryCommandHasSchema(t *testing.T) {
	for _, typ := range protocol.Commands() {
		_, err := protocol.Build(typ, nil)
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInvalidPayload, "command %s", typ)
		}
	}
	assert.Len(t, protocol.Commands(), 19)
}

func TestOutboundEncode(t *testing.T) {
	raw, err := protocol.NewEvent(protocol.EvtAllReady, nil).Encode()
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.JSONEq(t, `"ALL_READY"`, string(got["type"]))
	assert.JSONEq(t, `{}`, string(got["data"]))
	assert.Contains(t, got, "timestamp")
}

package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// schemas binds each command to its payload constructor.
var schemas = map[CommandType]func() any{
	CmdChat:               func() any { return &ChatPayload{} },
	CmdPrivateMessage:     func() any { return &PrivateMessagePayload{} },
	CmdPlayerAction:       func() any { return &PlayerActionPayload{} },
	CmdUpdateRoomSettings: func() any { return &UpdateRoomSettingsPayload{} },
	CmdGenerateScript:     func() any { return &EmptyPayload{} },
	CmdSelectCharacter:    func() any { return &SelectCharacterPayload{} },
	CmdReady:              func() any { return &ReadyPayload{} },
	CmdStartGame:          func() any { return &EmptyPayload{} },
	CmdNextStage:          func() any { return &EmptyPayload{} },
	CmdSearchBegin:        func() any { return &EmptyPayload{} },
	CmdSearchEnd:          func() any { return &EmptyPayload{} },
	CmdSearchClue:         func() any { return &SearchCluePayload{} },
	CmdStartVote:          func() any { return &EmptyPayload{} },
	CmdGameVote:           func() any { return &GameVotePayload{} },
	CmdEndVote:            func() any { return &EmptyPayload{} },
	CmdAddAgent:           func() any { return &AddAgentPayload{} },
	CmdRemoveAgent:        func() any { return &RemoveAgentPayload{} },
	CmdLeaveRoom:          func() any { return &EmptyPayload{} },
	CmdRequestStatus:      func() any { return &EmptyPayload{} },
}

// Commands lists every known command type in stable order.
func Commands() []CommandType {
	out := make([]CommandType, 0, len(schemas))
	for t := range schemas {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Decode parses raw into a validated Command. Errors wrap domain validation sentinels.
func Decode(raw []byte) (*Command, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if in.Type == "" {
		return nil, fmt.Errorf("%w: missing type", domain.ErrMalformedMessage)
	}
	return Build(in.Type, in.Data)
}

// Build decodes data against the schema registered for t.
func Build(t CommandType, data json.RawMessage) (*Command, error) {
	newPayload, ok := schemas[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMessageType, t)
	}

	payload := newPayload()
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, payload); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
	}

	if tr, ok := payload.(trimmer); ok {
		tr.trim()
	}

	if err := validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPayload, describe(err))
	}

	return &Command{Type: t, Payload: payload}, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

package service

import (
	"context"

	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
)

func chatAllowed(p domain.Phase) bool {
	return p != domain.PhaseDissolved && p != domain.PhaseGeneratingContent
}

func (s *RoomService) chat(ctx context.Context, a actor, p *protocol.ChatPayload) error {
	me, stage, err := s.speaker(ctx, a)
	if err != nil {
		return err
	}

	sender := me.UserID
	entry := domain.NewLogEntry(a.roomID, domain.LogPublicChat, &sender, p.Message)
	entry.Stage = stage
	s.appendLog(ctx, entry)

	s.broadcast(a.roomID, protocol.EvtChat, protocol.ChatData{
		SenderID:       me.UserID,
		SenderNickname: me.Nickname,
		Message:        p.Message,
	})
	if !me.IsAgent {
		s.hooks.HumanMessage(domain.AgentTrigger{
			RoomID:   a.roomID,
			Kind:     domain.TriggerChat,
			SenderID: me.UserID,
			Message:  p.Message,
		})
	}
	return nil
}

func (s *RoomService) privateMessage(ctx context.Context, a actor, p *protocol.PrivateMessagePayload) error {
	me, stage, err := s.speaker(ctx, a)
	if err != nil {
		return err
	}
	if p.RecipientID == me.UserID {
		return domain.ErrRecipientNotFound
	}
	recipient, err := s.rooms.GetParticipant(ctx, a.roomID, p.RecipientID)
	if err != nil {
		return domain.ErrRecipientNotFound
	}

	sender, to := me.UserID, recipient.UserID
	entry := domain.NewLogEntry(a.roomID, domain.LogPrivateChat, &sender, p.Message)
	entry.RecipientID = &to
	entry.Stage = stage
	s.appendLog(ctx, entry)

	msg := protocol.NewEvent(protocol.EvtPrivateMessage, protocol.PrivateMessageData{
		SenderID:       me.UserID,
		SenderNickname: me.Nickname,
		RecipientID:    recipient.UserID,
		Message:        p.Message,
	})
	s.unicast(recipient.UserID, msg)
	s.unicast(me.UserID, msg)

	if !me.IsAgent && recipient.IsAgent {
		s.hooks.HumanMessage(domain.AgentTrigger{
			RoomID:      a.roomID,
			Kind:        domain.TriggerPrivate,
			SenderID:    me.UserID,
			RecipientID: recipient.UserID,
			Message:     p.Message,
		})
	}
	return nil
}

func (s *RoomService) playerAction(ctx context.Context, a actor, p *protocol.PlayerActionPayload) error {
	st, err := s.State(ctx, a.roomID)
	if err != nil {
		return err
	}
	me := st.Participant(a.userID)
	if me == nil {
		return domain.ErrNotParticipant
	}
	if !st.Room.Phase.Active() {
		return domain.ErrNotInProgress
	}

	sender := me.UserID
	entry := domain.NewLogEntry(a.roomID, domain.LogAction, &sender, p.Action)
	entry.Stage = st.Room.CurrentStage
	s.appendLog(ctx, entry)

	s.broadcast(a.roomID, protocol.EvtPlayerAction, protocol.PlayerActionData{
		UserID:   me.UserID,
		Nickname: me.Nickname,
		Action:   p.Action,
	})
	return nil
}

// speaker resolves the chatting participant. Chat needs no room lock.
func (s *RoomService) speaker(ctx context.Context, a actor) (*domain.Participant, int, error) {
	room, err := s.rooms.GetByID(ctx, a.roomID)
	if err != nil {
		return nil, 0, err
	}
	if !chatAllowed(room.Phase) {
		return nil, 0, domain.ErrWrongPhase
	}
	me, err := s.rooms.GetParticipant(ctx, a.roomID, a.userID)
	if err != nil {
		return nil, 0, domain.ErrNotParticipant
	}
	return me, room.CurrentStage, nil
}

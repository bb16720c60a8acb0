package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

type AgentProfileInput struct {
	Name               string
	Persona            string
	RespondProbability float64
	ResponseInterval   time.Duration
}

func (s *RoomService) CreateAgentProfile(ctx context.Context, in AgentProfileInput) (*domain.AgentProfile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: agent name is required", domain.ErrInvalidPayload)
	}
	if in.RespondProbability < 0 || in.RespondProbability > 1 {
		return nil, fmt.Errorf("%w: respond probability must be within [0, 1]", domain.ErrInvalidPayload)
	}
	profile := domain.NewAgentProfile(name, strings.TrimSpace(in.Persona), in.RespondProbability, in.ResponseInterval)
	if err := s.agents.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.log.Info("agent profile created", slog.String("profile_id", profile.ID.String()), slog.String("name", profile.Name))
	return profile, nil
}

func (s *RoomService) ListAgentProfiles(ctx context.Context) ([]*domain.AgentProfile, error) {
	return s.agents.ListProfiles(ctx)
}

func (s *RoomService) addAgent(ctx context.Context, a actor, p *protocol.AddAgentPayload) error {
	const op = "service.room.addAgent"
	log := s.log.With(slog.String("op", op), slog.String("room_id", a.roomID.String()))

	var seated *domain.Participant
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if st.Room.Phase != domain.PhaseWaiting && st.Room.Phase != domain.PhaseSelectingRole {
			return domain.ErrRoomNotJoinable
		}
		if len(st.Participants) >= st.Room.Capacity {
			return domain.ErrRoomFull
		}
		if st.Room.Phase == domain.PhaseSelectingRole && openCharacters(st) == 0 {
			return domain.ErrRoomFull
		}
		profile, err := s.agents.GetProfile(ctx, p.ProfileID)
		if err != nil {
			return err
		}

		user := domain.NewAgentUser(profile)
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		agent := domain.NewAgentParticipant(st.Room.ID, user, profile)
		if st.Script != nil {
			if c := freeCharacter(st); c != nil {
				id := c.ID
				agent.CharacterID = &id
			}
		}
		if err := s.rooms.AddParticipant(ctx, agent); err != nil {
			if derr := s.users.Delete(context.WithoutCancel(ctx), user.ID); derr != nil {
				log.Error("failed to delete agent user", slog.String("user_id", user.ID.String()), sl.Err(derr))
			}
			return err
		}
		seated = agent
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("agent added", slog.String("user_id", seated.UserID.String()))
	s.broadcast(a.roomID, protocol.EvtAgentAdded, protocol.AgentData{
		UserID:    seated.UserID,
		Nickname:  seated.Nickname,
		ProfileID: p.ProfileID,
	})
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

func (s *RoomService) removeAgent(ctx context.Context, a actor, p *protocol.RemoveAgentPayload) error {
	var removed *domain.Participant
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if st.Room.Phase != domain.PhaseWaiting {
			return domain.ErrNotInWaiting
		}
		agent := st.Participant(p.UserID)
		if agent == nil || !agent.IsAgent {
			return domain.ErrAgentNotFound
		}
		if err := s.rooms.RemoveParticipant(ctx, st.Room.ID, agent.UserID); err != nil {
			return err
		}
		removed = agent
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast(a.roomID, protocol.EvtAgentRemoved, protocol.AgentData{UserID: removed.UserID, Nickname: removed.Nickname})
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

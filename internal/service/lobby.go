package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/internal/repository"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

const maxCodeAttempts = 8

type CreateRoomInput struct {
	HostID   uuid.UUID
	Name     string
	Password string
	Capacity int
	Settings domain.Settings
}

func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*domain.Room, error) {
	const op = "service.room.CreateRoom"
	log := s.log.With(slog.String("op", op), slog.String("host_id", in.HostID.String()))

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", domain.ErrInvalidPayload)
	}
	capacity := in.Capacity
	if capacity <= 0 {
		capacity = s.opts.DefaultCapacity
	}
	if capacity > s.opts.MaxCapacity {
		return nil, fmt.Errorf("%w: capacity above %d", domain.ErrInvalidPayload, s.opts.MaxCapacity)
	}

	host, err := s.users.GetByID(ctx, in.HostID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		room := domain.NewRoom(name, host.ID, capacity)
		room.Password = in.Password
		room.Settings = in.Settings

		err := s.rooms.Create(ctx, room)
		if errors.Is(err, repository.ErrRoomCodeExists) && attempt < maxCodeAttempts {
			continue
		}
		if err != nil {
			log.Error("failed to create room", sl.Err(err))
			return nil, err
		}

		if err := s.rooms.AddParticipant(ctx, domain.NewParticipant(room.ID, host)); err != nil {
			log.Error("failed to seat host", sl.Err(err))
			_ = s.rooms.Delete(ctx, room.ID)
			return nil, err
		}

		log.Info("room created", slog.String("room_id", room.ID.String()), slog.String("code", room.Code))
		return room, nil
	}
}

func (s *RoomService) JoinRoom(ctx context.Context, code string, userID uuid.UUID, password string) (*domain.Room, error) {
	const op = "service.room.JoinRoom"
	log := s.log.With(slog.String("op", op), slog.String("code", code), slog.String("user_id", userID.String()))

	room, err := s.rooms.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	joined := false
	unlock := s.locks.lock(room.ID)
	err = func() error {
		st, err := s.State(ctx, room.ID)
		if err != nil {
			return err
		}
		room = st.Room
		if st.Participant(userID) != nil {
			return nil
		}
		if room.Phase != domain.PhaseWaiting && room.Phase != domain.PhaseSelectingRole {
			return domain.ErrRoomNotJoinable
		}
		if len(st.Participants) >= room.Capacity {
			return domain.ErrRoomFull
		}
		if room.Phase == domain.PhaseSelectingRole && openCharacters(st) == 0 {
			return domain.ErrRoomFull
		}
		if room.Password != "" && room.Password != password {
			return domain.ErrWrongPassword
		}
		if err := s.rooms.AddParticipant(ctx, domain.NewParticipant(room.ID, user)); err != nil {
			return err
		}
		joined = true
		return nil
	}()
	unlock()
	if err != nil {
		return nil, err
	}

	if joined {
		log.Info("user joined room")
		s.broadcast(room.ID, protocol.EvtPlayerJoined, protocol.PlayerData{UserID: user.ID, Nickname: user.Nickname}, user.ID)
		s.broadcastStatus(ctx, room.ID)
	}
	return room, nil
}

func (s *RoomService) GetRoomByCode(ctx context.Context, code string) (*domain.Room, error) {
	return s.rooms.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// ListRooms returns rooms that still accept participants.
func (s *RoomService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	return s.rooms.List(ctx, domain.PhaseWaiting, domain.PhaseSelectingRole)
}

// Authorize checks that userID may open a live connection to the room.
func (s *RoomService) Authorize(ctx context.Context, code string, userID uuid.UUID) (*domain.Room, *domain.Participant, error) {
	room, err := s.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.rooms.GetParticipant(ctx, room.ID, userID)
	if errors.Is(err, repository.ErrParticipantNotFound) {
		return nil, nil, domain.ErrNotParticipant
	}
	if err != nil {
		return nil, nil, err
	}
	return room, p, nil
}

// Connected greets a freshly registered connection and tells the room.
func (s *RoomService) Connected(ctx context.Context, roomID, userID uuid.UUID) {
	const op = "service.room.Connected"
	log := s.log.With(slog.String("op", op), slog.String("room_id", roomID.String()), slog.String("user_id", userID.String()))

	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		log.Error("failed to load room", sl.Err(err))
		return
	}
	p, err := s.rooms.GetParticipant(ctx, roomID, userID)
	if err != nil {
		log.Error("failed to load participant", sl.Err(err))
		return
	}

	s.unicast(userID, protocol.NewEvent(protocol.EvtConnected, protocol.ConnectedData{
		RoomCode: room.Code,
		UserID:   userID,
		Nickname: p.Nickname,
	}))
	if err := s.sendStatus(ctx, roomID, userID); err != nil {
		log.Warn("failed to send status", sl.Err(err))
	}
	s.broadcast(roomID, protocol.EvtPlayerOnline, protocol.PlayerData{UserID: userID, Nickname: p.Nickname}, userID)
	s.broadcastStatus(ctx, roomID)
	log.Info("player online")
}

// Disconnected tells the room that userID went offline, if they are still seated.
func (s *RoomService) Disconnected(ctx context.Context, roomID, userID uuid.UUID) {
	p, err := s.rooms.GetParticipant(ctx, roomID, userID)
	if err != nil {
		return
	}
	s.broadcast(roomID, protocol.EvtPlayerOffline, protocol.PlayerData{UserID: userID, Nickname: p.Nickname}, userID)
	s.broadcastStatus(ctx, roomID)
}

func (s *RoomService) leaveRoom(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	return s.Leave(ctx, a.roomID, a.userID)
}

type leaveResult struct {
	left      *domain.Participant
	newHost   *domain.Participant
	dissolved bool
	finished  bool
}

// Leave removes userID; the host role moves to the earliest-joined human and
// the room is dissolved when no human remains.
func (s *RoomService) Leave(ctx context.Context, roomID, userID uuid.UUID) error {
	const op = "service.room.Leave"
	log := s.log.With(slog.String("op", op), slog.String("room_id", roomID.String()), slog.String("user_id", userID.String()))

	var res leaveResult
	err := s.mutate(ctx, actor{roomID: roomID, userID: userID}, func(st *domain.GameState, me *domain.Participant) error {
		res.left = me
		if st.NextHost(userID) == nil {
			if st.Script != nil && !st.Room.Phase.Active() && st.Room.Phase != domain.PhaseFinished {
				// an unplayed script is not kept around
				if err := s.scripts.Delete(ctx, st.Script.ID); err != nil {
					log.Error("failed to delete unplayed script", slog.String("script_id", st.Script.ID.String()), sl.Err(err))
				}
			}
			if err := s.rooms.Delete(ctx, roomID); err != nil {
				return err
			}
			res.dissolved = true
			return nil
		}

		if err := s.rooms.RemoveParticipant(ctx, roomID, userID); err != nil {
			return err
		}
		if st.Room.IsHost(userID) {
			res.newHost = st.NextHost(userID)
			st.Room.HostID = res.newHost.UserID
			st.Room.UpdatedAt = time.Now().UTC()
			if err := s.rooms.Update(ctx, st.Room); err != nil {
				return err
			}
		}

		if st.Room.Phase == domain.PhaseVoting {
			remaining := st.Participants[:0:0]
			for _, p := range st.Participants {
				if p.UserID != userID {
					remaining = append(remaining, p)
				}
			}
			st.Participants = remaining
			finished, err := s.finishIfEveryoneVoted(ctx, st)
			if err != nil {
				return err
			}
			res.finished = finished
		}
		return nil
	})
	if err != nil {
		return err
	}

	if res.dissolved {
		log.Info("room dissolved")
		s.cancelGeneration(roomID, errRoomDissolved)
		s.hooks.RoomDeactivated(roomID)
		s.broadcast(roomID, protocol.EvtRoomDissolved, protocol.NoticeData{Message: "the room has been dissolved"})
		s.events.CloseRoom(roomID)
		return nil
	}

	log.Info("player left")
	s.broadcast(roomID, protocol.EvtPlayerLeft, protocol.PlayerData{
		UserID:   res.left.UserID,
		Nickname: res.left.Nickname,
		IsAgent:  res.left.IsAgent,
	})
	if res.newHost != nil {
		s.broadcast(roomID, protocol.EvtHostChanged, protocol.HostChangedData{HostID: res.newHost.UserID, Nickname: res.newHost.Nickname})
	}
	if res.finished {
		s.announceFinish(ctx, roomID)
	}
	s.events.Disconnect(userID)
	s.broadcastStatus(ctx, roomID)
	return nil
}

func (s *RoomService) updateSettings(ctx context.Context, a actor, p *protocol.UpdateRoomSettingsPayload) error {
	var settings domain.Settings
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if st.Room.Phase != domain.PhaseWaiting {
			return domain.ErrNotInWaiting
		}
		st.Room.Settings = st.Room.Settings.Merge(domain.SettingsPatch{
			Theme:         trimmed(p.Theme),
			Difficulty:    trimmed(p.Difficulty),
			DMPersonality: trimmed(p.DMPersonality),
			DurationMins:  p.DurationMins,
			SpecialRules:  trimmed(p.SpecialRules),
		})
		st.Room.UpdatedAt = time.Now().UTC()
		settings = st.Room.Settings
		return s.rooms.Update(ctx, st.Room)
	})
	if err != nil {
		return err
	}

	s.broadcast(a.roomID, protocol.EvtRoomSettingsUpdated, protocol.SettingsData{Settings: settings})
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

func (s *RoomService) selectCharacter(ctx context.Context, a actor, p *protocol.SelectCharacterPayload) error {
	var name string
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if st.Room.Phase != domain.PhaseSelectingRole {
			return domain.ErrNotSelectingRole
		}
		if st.Script == nil {
			return domain.ErrNoScript
		}
		c := st.Script.Character(p.CharacterID)
		if c == nil {
			return domain.ErrCharacterNotFound
		}
		if holder := st.Holder(c.ID); holder != nil && holder.UserID != me.UserID {
			return domain.ErrCharacterTaken
		}
		name = c.Name
		id := c.ID
		me.CharacterID = &id
		return s.rooms.UpdateParticipant(ctx, me)
	})
	if err != nil {
		return err
	}

	s.broadcast(a.roomID, protocol.EvtCharacterSelected, protocol.CharacterSelectedData{
		UserID:        a.userID,
		CharacterID:   p.CharacterID,
		CharacterName: name,
	})
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

func (s *RoomService) setReady(ctx context.Context, a actor, p *protocol.ReadyPayload) error {
	ready := *p.Ready
	allReady := false
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if st.Room.Phase != domain.PhaseWaiting && st.Room.Phase != domain.PhaseSelectingRole {
			return domain.ErrWrongPhase
		}
		me.Ready = ready
		if err := s.rooms.UpdateParticipant(ctx, me); err != nil {
			return err
		}
		allReady = st.AllReady()
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast(a.roomID, protocol.EvtPlayerReady, protocol.PlayerReadyData{UserID: a.userID, Ready: ready})
	if allReady {
		s.broadcast(a.roomID, protocol.EvtAllReady, nil)
	}
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

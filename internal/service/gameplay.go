package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
)

func (s *RoomService) startGame(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	const op = "service.game.startGame"
	log := s.log.With(slog.String("op", op), slog.String("room_id", a.roomID.String()))

	var started time.Time
	var first *domain.Stage
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if st.Room.Phase != domain.PhaseSelectingRole {
			return domain.ErrNotSelectingRole
		}
		if st.Script == nil {
			return domain.ErrNoScript
		}
		if !st.AllReady() {
			return domain.ErrPlayersNotReady
		}

		started = time.Now().UTC()
		st.Room.Phase = domain.PhaseInProgress
		st.Room.CurrentStage = 1
		st.Room.StartedAt = &started
		st.Room.UpdatedAt = started
		if err := s.rooms.Update(ctx, st.Room); err != nil {
			return err
		}
		first = st.Script.Stage(1)
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("game started")
	s.hooks.RoomActivated(a.roomID)
	s.phaseChanged(a.roomID, domain.PhaseSelectingRole, domain.PhaseInProgress)
	s.broadcast(a.roomID, protocol.EvtGameStarted, protocol.GameStartedData{Stage: 1, StartedAt: started})
	s.announceStage(ctx, a, first)
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

// nextStage advances one stage; past the last stage the room moves to Voting.
func (s *RoomService) nextStage(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	var from domain.Phase
	var next *domain.Stage
	var voters int
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if !st.Room.Phase.InPlay() {
			return domain.ErrNotInProgress
		}
		if st.Script == nil {
			return domain.ErrNoScript
		}
		from = st.Room.Phase

		if st.Room.CurrentStage < st.Script.StageCount() {
			st.Room.CurrentStage++
			st.Room.Phase = domain.PhaseInProgress
			next = st.Script.Stage(st.Room.CurrentStage)
		} else {
			if err := s.game.ClearVotes(ctx, st.Room.ID); err != nil {
				return err
			}
			st.Room.Phase = domain.PhaseVoting
			voters = len(st.Voters())
		}
		st.Room.UpdatedAt = time.Now().UTC()
		return s.rooms.Update(ctx, st.Room)
	})
	if err != nil {
		return err
	}

	if next != nil {
		if from != domain.PhaseInProgress {
			s.phaseChanged(a.roomID, from, domain.PhaseInProgress)
		}
		s.announceStage(ctx, a, next)
	} else {
		s.phaseChanged(a.roomID, from, domain.PhaseVoting)
		s.broadcast(a.roomID, protocol.EvtVoteStarted, protocol.VoteStartedData{Voters: voters})
	}
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

func (s *RoomService) announceStage(ctx context.Context, a actor, stage *domain.Stage) {
	if stage == nil {
		return
	}
	entry := domain.NewLogEntry(a.roomID, domain.LogNarration, nil, stage.OpeningNarrative)
	entry.Stage = stage.Number
	s.appendLog(ctx, entry)
	s.broadcast(a.roomID, protocol.EvtStageChanged, protocol.StageChangedData{
		Stage:            stage.Number,
		Name:             stage.Name,
		OpeningNarrative: stage.OpeningNarrative,
	})
}

func (s *RoomService) searchBegin(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	return s.toggle(ctx, a, domain.PhaseInProgress, domain.PhaseSearching, domain.ErrNotInProgress)
}

func (s *RoomService) searchEnd(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	return s.toggle(ctx, a, domain.PhaseSearching, domain.PhaseInProgress, domain.ErrNotSearching)
}

// toggle is a host-only move between two play phases.
func (s *RoomService) toggle(ctx context.Context, a actor, from, to domain.Phase, wrong error) error {
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if st.Room.Phase != from {
			return wrong
		}
		st.Room.Phase = to
		st.Room.UpdatedAt = time.Now().UTC()
		return s.rooms.Update(ctx, st.Room)
	})
	if err != nil {
		return err
	}

	s.phaseChanged(a.roomID, from, to)
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

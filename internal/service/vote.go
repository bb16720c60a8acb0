package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/projection"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

type voteEndedData struct {
	Tally   projection.Tally   `json:"tally"`
	Outcome projection.Outcome `json:"outcome"`
}

func (s *RoomService) startVote(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	var from domain.Phase
	var voters int
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if !st.Room.Phase.InPlay() {
			return domain.ErrNotInProgress
		}
		if err := s.game.ClearVotes(ctx, st.Room.ID); err != nil {
			return err
		}
		from = st.Room.Phase
		st.Room.Phase = domain.PhaseVoting
		st.Room.UpdatedAt = time.Now().UTC()
		voters = len(st.Voters())
		return s.rooms.Update(ctx, st.Room)
	})
	if err != nil {
		return err
	}

	s.phaseChanged(a.roomID, from, domain.PhaseVoting)
	s.broadcast(a.roomID, protocol.EvtVoteStarted, protocol.VoteStartedData{Voters: voters})
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

func (s *RoomService) castVote(ctx context.Context, a actor, p *protocol.GameVotePayload) error {
	const op = "service.game.castVote"
	log := s.log.With(slog.String("op", op), slog.String("room_id", a.roomID.String()), slog.String("user_id", a.userID.String()))

	var tally projection.Tally
	var finished bool
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if st.Room.Phase != domain.PhaseVoting {
			return domain.ErrNotVoting
		}
		if !me.HasCharacter() || !me.Alive {
			return domain.ErrVoterNotAlive
		}
		if p.TargetUserID == me.UserID {
			return domain.ErrVoteSelf
		}
		if st.Participant(p.TargetUserID) == nil {
			return domain.ErrTargetNotParticipant
		}
		if prev := st.Vote(me.UserID); prev != nil && prev.TargetID == p.TargetUserID {
			return domain.ErrRedundantVote
		}

		vote := &domain.Vote{
			ID:       uuid.New(),
			RoomID:   st.Room.ID,
			VoterID:  me.UserID,
			TargetID: p.TargetUserID,
			Stage:    st.Room.CurrentStage,
			CastAt:   time.Now().UTC(),
		}
		if err := s.game.SaveVote(ctx, vote); err != nil {
			return err
		}

		votes, err := s.game.ListVotes(ctx, st.Room.ID)
		if err != nil {
			return err
		}
		st.Votes = votes
		tally = projection.BuildTally(st)

		finished, err = s.finishIfEveryoneVoted(ctx, st)
		return err
	})
	if err != nil {
		return err
	}

	log.Info("vote cast", slog.String("target", p.TargetUserID.String()), slog.Bool("finished", finished))
	s.broadcast(a.roomID, protocol.EvtVoteUpdated, tally)
	if finished {
		s.announceFinish(ctx, a.roomID)
	}
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

func (s *RoomService) endVote(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if st.Room.Phase != domain.PhaseVoting {
			return domain.ErrNotVoting
		}
		return s.finish(ctx, st)
	})
	if err != nil {
		return err
	}

	s.announceFinish(ctx, a.roomID)
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

// finishIfEveryoneVoted closes voting once every eligible voter holds a ballot.
// Callers hold the room lock and must have st.Votes loaded.
func (s *RoomService) finishIfEveryoneVoted(ctx context.Context, st *domain.GameState) (bool, error) {
	voters := st.Voters()
	if len(voters) == 0 {
		return false, nil
	}
	for _, p := range voters {
		// a ballot for someone who left no longer counts
		v := st.Vote(p.UserID)
		if v == nil || st.Participant(v.TargetID) == nil {
			return false, nil
		}
	}
	return true, s.finish(ctx, st)
}

func (s *RoomService) finish(ctx context.Context, st *domain.GameState) error {
	now := time.Now().UTC()
	st.Room.Phase = domain.PhaseFinished
	st.Room.FinishedAt = &now
	st.Room.UpdatedAt = now
	return s.rooms.Update(ctx, st.Room)
}

// announceFinish broadcasts the outcome of a room that just entered Finished.
func (s *RoomService) announceFinish(ctx context.Context, roomID uuid.UUID) {
	s.hooks.RoomDeactivated(roomID)
	s.phaseChanged(roomID, domain.PhaseVoting, domain.PhaseFinished)

	st, err := s.State(ctx, roomID)
	if err != nil {
		s.log.Error("failed to load finished room", slog.String("room_id", roomID.String()), sl.Err(err))
		return
	}
	outcome := projection.Judge(st)
	entry := domain.NewLogEntry(roomID, domain.LogSystem, nil, outcomeLine(outcome))
	entry.Stage = st.Room.CurrentStage
	s.appendLog(ctx, entry)
	s.broadcast(roomID, protocol.EvtVoteEnded, voteEndedData{Tally: projection.BuildTally(st), Outcome: outcome})
}

func outcomeLine(o projection.Outcome) string {
	switch {
	case o.AccusedID == nil:
		return "Voting closed without an accusation."
	case o.CulpritCaught:
		return "The culprit " + o.CulpritName + " was caught."
	default:
		return o.AccusedName + " was accused; the culprit " + o.CulpritName + " escaped."
	}
}

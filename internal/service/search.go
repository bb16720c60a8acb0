package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
)

type searchOutcome struct {
	clue      domain.Clue
	searcher  *domain.Participant
	holder    *domain.Participant
	remaining int
}

// searchClue checks, in order: phase, own character, clue in script, clue
// stage, no earlier search, attempts left, clue holder seated.
func (s *RoomService) searchClue(ctx context.Context, a actor, p *protocol.SearchCluePayload) error {
	const op = "service.game.searchClue"
	log := s.log.With(slog.String("op", op), slog.String("room_id", a.roomID.String()), slog.String("user_id", a.userID.String()))

	var out searchOutcome
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if st.Room.Phase != domain.PhaseSearching {
			return domain.ErrNotSearching
		}
		if !me.HasCharacter() {
			return domain.ErrNoCharacter
		}
		clue := st.Script.Clue(p.ClueID)
		if clue == nil {
			return domain.ErrClueNotFound
		}
		if clue.Stage > st.Room.CurrentStage {
			return domain.ErrClueNotAvailable
		}
		if st.Searched(me.UserID, clue.ID) {
			return domain.ErrAlreadySearched
		}
		goal := st.Script.Goal(*me.CharacterID, st.Room.CurrentStage)
		if goal == nil || goal.SearchAttempts <= 0 {
			return domain.ErrNoSearchAttempts
		}
		if clue.CharacterID == nil {
			return domain.ErrClueHolderNotFound
		}
		holder := st.Holder(*clue.CharacterID)
		if holder == nil {
			return domain.ErrClueHolderNotFound
		}
		if holder.UserID == me.UserID {
			return domain.ErrOwnClue
		}

		action := &domain.SearchAction{
			ID:         uuid.New(),
			RoomID:     st.Room.ID,
			SearcherID: me.UserID,
			TargetID:   holder.UserID,
			ClueID:     clue.ID,
			Stage:      st.Room.CurrentStage,
			IsPublic:   p.Public,
			CreatedAt:  time.Now().UTC(),
		}
		sender := me.UserID
		entry := domain.NewLogEntry(st.Room.ID, domain.LogClueReveal, &sender, clue.Name)
		entry.Stage = st.Room.CurrentStage
		clueID := clue.ID
		entry.ClueID = &clueID
		if !p.Public {
			recipient := me.UserID
			entry.RecipientID = &recipient
		}

		remaining, err := s.game.RecordSearch(ctx, action, goal.ID, entry)
		if err != nil {
			return err
		}
		out = searchOutcome{clue: *clue, searcher: me, holder: holder, remaining: remaining}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("clue found", slog.String("clue_id", out.clue.ID.String()), slog.Int("attempts_left", out.remaining))
	s.unicast(a.userID, protocol.NewEvent(protocol.EvtSearchResult, protocol.SearchResultData{
		ClueID:       out.clue.ID,
		Name:         out.clue.Name,
		Description:  out.clue.Description,
		TargetUserID: out.holder.UserID,
		AttemptsLeft: out.remaining,
		Public:       p.Public,
	}))
	if p.Public {
		s.broadcast(a.roomID, protocol.EvtClueDiscovered, protocol.ClueDiscoveredData{
			SearcherID:       out.searcher.UserID,
			SearcherNickname: out.searcher.Nickname,
			TargetUserID:     out.holder.UserID,
			ClueID:           out.clue.ID,
			Name:             out.clue.Name,
			Description:      out.clue.Description,
		}, a.userID)
	}
	s.broadcastStatus(ctx, a.roomID)
	return nil
}

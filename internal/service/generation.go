package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/content"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

func (s *RoomService) generateScript(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	const op = "service.game.generateScript"
	log := s.log.With(slog.String("op", op), slog.String("room_id", a.roomID.String()))

	var req content.Request
	err := s.mutate(ctx, a, func(st *domain.GameState, me *domain.Participant) error {
		if err := requireHost(st, me); err != nil {
			return err
		}
		if st.Room.Phase != domain.PhaseWaiting {
			return domain.ErrNotInWaiting
		}
		if st.Room.HasScript() {
			return domain.ErrScriptAlreadyBound
		}
		if !st.Room.Settings.Complete() {
			return domain.ErrSettingsIncomplete
		}

		st.Room.Phase = domain.PhaseGeneratingContent
		st.Room.UpdatedAt = time.Now().UTC()
		if err := s.rooms.Update(ctx, st.Room); err != nil {
			return err
		}
		req = content.Request{
			RoomID:   st.Room.ID,
			AuthorID: me.UserID,
			Seats:    max(st.Room.Capacity, len(st.Participants)),
			Settings: st.Room.Settings,
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("script generation started", slog.Int("seats", req.Seats))
	s.phaseChanged(a.roomID, domain.PhaseWaiting, domain.PhaseGeneratingContent)
	s.broadcast(a.roomID, protocol.EvtScriptGenerationStarted, nil)
	s.broadcastStatus(ctx, a.roomID)

	job := s.trackGeneration(a.roomID)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.untrackGeneration(a.roomID, job)
		s.runGeneration(job.ctx, req)
	}()
	return nil
}

var errRoomDissolved = errors.New("room dissolved")

type genJob struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// trackGeneration registers one room's generation job.
func (s *RoomService) trackGeneration(roomID uuid.UUID) *genJob {
	ctx, cancel := context.WithCancelCause(s.root)
	job := &genJob{ctx: ctx, cancel: cancel}
	s.genMu.Lock()
	s.gens[roomID] = job
	s.genMu.Unlock()
	return job
}

func (s *RoomService) untrackGeneration(roomID uuid.UUID, job *genJob) {
	s.genMu.Lock()
	if s.gens[roomID] == job {
		delete(s.gens, roomID)
	}
	s.genMu.Unlock()
	job.cancel(nil)
}

// cancelGeneration aborts the room's generation job, if one is running.
func (s *RoomService) cancelGeneration(roomID uuid.UUID, cause error) {
	s.genMu.Lock()
	job, ok := s.gens[roomID]
	s.genMu.Unlock()
	if ok {
		job.cancel(cause)
	}
}

func (s *RoomService) runGeneration(ctx context.Context, req content.Request) {
	const op = "service.game.runGeneration"
	log := s.log.With(slog.String("op", op), slog.String("room_id", req.RoomID.String()))

	script, err := s.generator.Generate(ctx, req)
	if errors.Is(context.Cause(ctx), errRoomDissolved) {
		log.Info("script generation abandoned, room dissolved")
		return
	}
	if err != nil {
		log.Warn("script generation failed", sl.Err(err))
		s.failGeneration(ctx, req.RoomID, err)
		return
	}
	if err := s.scripts.Create(ctx, script); err != nil {
		log.Error("failed to store script", sl.Err(err))
		s.failGeneration(ctx, req.RoomID, err)
		return
	}

	bound, err := s.bindScript(ctx, req.RoomID, script)
	if err != nil || !bound {
		if derr := s.scripts.Delete(context.WithoutCancel(ctx), script.ID); derr != nil {
			log.Error("failed to delete orphaned script", sl.Err(derr))
		}
		if err != nil {
			log.Error("failed to bind script", sl.Err(err))
			s.failGeneration(ctx, req.RoomID, err)
		}
		return
	}

	log.Info("script bound", slog.String("script_id", script.ID.String()), slog.String("title", script.Title))
	id := script.ID
	s.phaseChanged(req.RoomID, domain.PhaseGeneratingContent, domain.PhaseSelectingRole)
	s.broadcast(req.RoomID, protocol.EvtScriptGenerationDone, protocol.ScriptGenerationData{ScriptID: &id, Title: script.Title})
	s.broadcastStatus(ctx, req.RoomID)
}

// bindScript attaches script to the room and seats agents on free characters.
// It reports false when the room left GeneratingContent in the meantime.
func (s *RoomService) bindScript(ctx context.Context, roomID uuid.UUID, script *domain.Script) (bool, error) {
	unlock := s.locks.lock(roomID)
	defer unlock()

	st, err := s.State(ctx, roomID)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if st.Room.Phase != domain.PhaseGeneratingContent || st.Room.HasScript() {
		return false, nil
	}

	id := script.ID
	st.Room.ScriptID = &id
	st.Room.Phase = domain.PhaseSelectingRole
	st.Room.CurrentStage = 0
	st.Room.UpdatedAt = time.Now().UTC()
	if err := s.rooms.Update(ctx, st.Room); err != nil {
		return false, err
	}

	st.Script = script
	for _, p := range st.Agents() {
		if p.HasCharacter() {
			continue
		}
		c := freeCharacter(st)
		if c == nil {
			break
		}
		cid := c.ID
		p.CharacterID = &cid
		if err := s.rooms.UpdateParticipant(ctx, p); err != nil {
			s.log.Warn("failed to seat agent", slog.String("user_id", p.UserID.String()), sl.Err(err))
			p.CharacterID = nil
		}
	}
	return true, nil
}

// failGeneration returns the room to Waiting and tells everyone.
func (s *RoomService) failGeneration(ctx context.Context, roomID uuid.UUID, cause error) {
	const op = "service.game.failGeneration"
	log := s.log.With(slog.String("op", op), slog.String("room_id", roomID.String()))
	ctx = context.WithoutCancel(ctx)

	reverted := false
	unlock := s.locks.lock(roomID)
	room, err := s.rooms.GetByID(ctx, roomID)
	if err == nil && room.Phase == domain.PhaseGeneratingContent {
		room.Phase = domain.PhaseWaiting
		room.UpdatedAt = time.Now().UTC()
		if err = s.rooms.Update(ctx, room); err == nil {
			reverted = true
		}
	}
	unlock()
	if errors.Is(err, domain.ErrRoomNotFound) {
		return
	}
	if err != nil {
		log.Error("failed to revert room", sl.Err(err))
		return
	}

	s.broadcast(roomID, protocol.EvtScriptGenerationFailed, protocol.ScriptGenerationData{Message: cause.Error()})
	if reverted {
		s.phaseChanged(roomID, domain.PhaseGeneratingContent, domain.PhaseWaiting)
	}
	s.broadcastStatus(ctx, roomID)
}

// openCharacters counts characters nobody holds or is still expected to pick.
func openCharacters(st *domain.GameState) int {
	if st.Script == nil {
		return 0
	}
	free := 0
	for _, c := range st.Script.Characters {
		if st.Holder(c.ID) == nil {
			free++
		}
	}
	for _, p := range st.Participants {
		if !p.HasCharacter() {
			free--
		}
	}
	return max(free, 0)
}

func freeCharacter(st *domain.GameState) *domain.Character {
	for i := range st.Script.Characters {
		c := &st.Script.Characters[i]
		if st.Holder(c.ID) == nil {
			return c
		}
	}
	return nil
}

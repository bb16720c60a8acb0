package projection

import (
	"sort"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

// Input is everything Project reads. Online is a point-in-time presence set.
type Input struct {
	State  *domain.GameState
	Viewer uuid.UUID
	Online map[uuid.UUID]bool
}

// Project builds the snapshot viewer may see. It has no side effects.
func Project(in Input) Snapshot {
	st := in.State
	room := st.Room

	switch room.Phase {
	case domain.PhaseWaiting, domain.PhaseGeneratingContent:
		return &LobbySnapshot{
			Phase:   room.Phase,
			Room:    summary(st),
			Players: players(in),
		}
	case domain.PhaseSelectingRole:
		return roleSelection(in)
	case domain.PhaseInProgress, domain.PhaseSearching:
		return play(in, room.Phase == domain.PhaseSearching, false)
	case domain.PhaseVoting:
		return voting(in)
	case domain.PhaseFinished:
		return finished(in)
	default:
		return &DissolvedSnapshot{Phase: room.Phase, Room: summary(st)}
	}
}

func summary(st *domain.GameState) RoomSummary {
	r := st.Room
	s := RoomSummary{
		ID:           r.ID,
		Code:         r.Code,
		Name:         r.Name,
		Phase:        r.Phase,
		Capacity:     r.Capacity,
		HostID:       r.HostID,
		Settings:     r.Settings,
		CurrentStage: r.CurrentStage,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
	if st.Script != nil {
		s.StageCount = st.Script.StageCount()
		s.ScriptTitle = st.Script.Title
		s.Description = st.Script.Description
		if !r.Phase.Lobby() {
			s.Overview = st.Script.Overview
		}
	}
	return s
}

func players(in Input) []PlayerView {
	st := in.State
	out := make([]PlayerView, 0, len(st.Participants))
	for _, p := range st.Participants {
		v := PlayerView{
			UserID:   p.UserID,
			Nickname: p.Nickname,
			IsHost:   st.Room.IsHost(p.UserID),
			IsOnline: p.IsAgent || in.Online[p.UserID],
			IsReady:  p.Ready,
			IsAlive:  p.Alive,
			IsAgent:  p.IsAgent,
		}
		if p.HasCharacter() {
			id := *p.CharacterID
			v.CharacterID = &id
			if st.Script != nil {
				if c := st.Script.Character(id); c != nil {
					v.CharacterName = c.Name
				}
			}
		}
		out = append(out, v)
	}
	return out
}

func roleSelection(in Input) *RoleSelectionSnapshot {
	st := in.State
	snap := &RoleSelectionSnapshot{
		Phase:   st.Room.Phase,
		Room:    summary(st),
		Players: players(in),
	}
	if me := st.Participant(in.Viewer); me.HasCharacter() {
		id := *me.CharacterID
		snap.MyCharacterID = &id
	}
	if st.Script == nil {
		return snap
	}
	for _, c := range st.Script.Characters {
		opt := CharacterOption{
			ID:         c.ID,
			Name:       c.Name,
			Gender:     c.Gender,
			PublicInfo: c.PublicInfo,
		}
		if holder := st.Holder(c.ID); holder != nil {
			uid := holder.UserID
			opt.SelectedBy = &uid
		}
		snap.Characters = append(snap.Characters, opt)
	}
	return snap
}

func self(st *domain.GameState, viewer uuid.UUID) *domain.Character {
	me := st.Participant(viewer)
	if !me.HasCharacter() || st.Script == nil {
		return nil
	}
	return st.Script.Character(*me.CharacterID)
}

func selfView(c *domain.Character) *SelfCharacter {
	if c == nil {
		return nil
	}
	return &SelfCharacter{
		ID:         c.ID,
		Name:       c.Name,
		Gender:     c.Gender,
		PublicInfo: c.PublicInfo,
		Backstory:  c.Backstory,
		IsCulprit:  c.IsCulprit,
	}
}

func characters(st *domain.GameState, mine *domain.Character) []CharacterView {
	if st.Script == nil {
		return nil
	}
	out := make([]CharacterView, 0, len(st.Script.Characters))
	for _, c := range st.Script.Characters {
		v := CharacterView{
			ID:         c.ID,
			Name:       c.Name,
			Gender:     c.Gender,
			PublicInfo: c.PublicInfo,
			IsSelf:     mine != nil && mine.ID == c.ID,
		}
		if holder := st.Holder(c.ID); holder != nil {
			uid := holder.UserID
			v.HolderID = &uid
		}
		out = append(out, v)
	}
	return out
}

func play(in Input, searching bool, reveal bool) *PlaySnapshot {
	st := in.State
	mine := self(st, in.Viewer)
	snap := &PlaySnapshot{
		Phase:      st.Room.Phase,
		Room:       summary(st),
		Players:    players(in),
		Me:         selfView(mine),
		Characters: characters(st, mine),
		Stages:     []StageView{},
		Clues:      []ClueView{},
		Timeline:   []TimelineView{},
	}
	if st.Script == nil {
		return snap
	}

	snap.Stages = stages(st, mine)
	snap.Clues = VisibleClues(st, in.Viewer)
	snap.Timeline = timeline(st, mine, reveal)
	if searching {
		snap.Search = searchInfo(st, in.Viewer, mine)
	}
	return snap
}

func stages(st *domain.GameState, mine *domain.Character) []StageView {
	out := make([]StageView, 0, st.Room.CurrentStage)
	for _, s := range st.Script.Stages {
		if s.Number > st.Room.CurrentStage {
			continue
		}
		v := StageView{
			Number:           s.Number,
			Name:             s.Name,
			OpeningNarrative: s.OpeningNarrative,
			Goal:             s.Goal,
		}
		if mine != nil {
			if g := st.Script.Goal(mine.ID, s.Number); g != nil {
				v.MyGoal = &GoalView{
					Description:    g.Description,
					Mandatory:      g.Mandatory,
					SearchAttempts: g.SearchAttempts,
				}
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func clueView(c *domain.Clue, src ClueSource) ClueView {
	return ClueView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Location:    c.Location,
		ImageURL:    c.ImageURL,
		Stage:       c.Stage,
		IsPublic:    c.IsPublic,
		Source:      src,
	}
}

// VisibleClues merges public clues, the viewer's own clues and the clues the
// viewer obtained by searching. Each clue appears once.
func VisibleClues(st *domain.GameState, viewer uuid.UUID) []ClueView {
	out := []ClueView{}
	if st.Script == nil {
		return out
	}
	seen := make(map[uuid.UUID]bool)
	mine := self(st, viewer)
	stage := st.Room.CurrentStage

	for i := range st.Script.Clues {
		c := &st.Script.Clues[i]
		if c.Stage > stage {
			continue
		}
		if c.IsPublic || (mine != nil && c.OwnedBy(mine.ID)) {
			seen[c.ID] = true
			out = append(out, clueView(c, SourceScript))
		}
	}
	for _, a := range st.Searches {
		if a.SearcherID != viewer || seen[a.ClueID] {
			continue
		}
		if c := st.Script.Clue(a.ClueID); c != nil {
			seen[c.ID] = true
			out = append(out, clueView(c, SourceSearch))
		}
	}
	return out
}

func searchInfo(st *domain.GameState, viewer uuid.UUID, mine *domain.Character) *SearchInfo {
	info := &SearchInfo{Targets: []SearchTarget{}, Obtained: []ClueView{}}
	stage := st.Room.CurrentStage

	for _, p := range st.Participants {
		if p.UserID == viewer || !p.HasCharacter() {
			continue
		}
		c := st.Script.Character(*p.CharacterID)
		if c == nil {
			continue
		}
		target := SearchTarget{
			UserID:         p.UserID,
			Nickname:       p.Nickname,
			CharacterID:    c.ID,
			CharacterName:  c.Name,
			AvailableClues: []HiddenClue{},
		}
		for i := range st.Script.Clues {
			clue := &st.Script.Clues[i]
			if clue.IsPublic || !clue.OwnedBy(c.ID) || clue.Stage > stage {
				continue
			}
			if st.Searched(viewer, clue.ID) {
				continue
			}
			target.AvailableClues = append(target.AvailableClues, HiddenClue{
				ID:       clue.ID,
				Name:     clue.Name,
				Stage:    clue.Stage,
				Location: clue.Location,
			})
		}
		info.Targets = append(info.Targets, target)
	}

	for _, a := range st.Searches {
		if a.SearcherID != viewer {
			continue
		}
		if c := st.Script.Clue(a.ClueID); c != nil {
			info.Obtained = append(info.Obtained, clueView(c, SourceSearch))
		}
	}

	if mine != nil {
		if g := st.Script.Goal(mine.ID, stage); g != nil {
			info.AttemptsLeft = g.SearchAttempts
		}
	}
	return info
}

func timeline(st *domain.GameState, mine *domain.Character, reveal bool) []TimelineView {
	out := []TimelineView{}
	for _, e := range st.Script.Timeline {
		own := mine != nil && e.CharacterID != nil && *e.CharacterID == mine.ID
		if !reveal && !e.IsPublic && !own {
			continue
		}
		v := TimelineView{
			Order:       e.Order,
			Description: e.Description,
			CharacterID: e.CharacterID,
			IsPublic:    e.IsPublic,
		}
		if reveal {
			v.Truth = e.Truth
		}
		out = append(out, v)
	}
	return out
}

func voting(in Input) *VotingSnapshot {
	st := in.State
	mine := self(st, in.Viewer)
	snap := &VotingSnapshot{
		Phase:      st.Room.Phase,
		Room:       summary(st),
		Players:    players(in),
		Me:         selfView(mine),
		Characters: characters(st, mine),
		Tally:      BuildTally(st),
	}
	if v := st.Vote(in.Viewer); v != nil {
		target := v.TargetID
		snap.MyVote = &target
	}
	return snap
}

func finished(in Input) *FinishedSnapshot {
	st := in.State
	snap := &FinishedSnapshot{
		PlaySnapshot: *play(in, false, true),
		Tally:        BuildTally(st),
		Outcome:      Judge(st),
	}
	if st.Script != nil {
		snap.Solution = st.Script.Solution
	}
	return snap
}

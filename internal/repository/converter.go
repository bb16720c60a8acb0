package repository

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/repository/model"
	"gorm.io/datatypes"
)

func toModelUser(u *domain.User) *model.User {
	return &model.User{
		ID:        u.ID,
		Nickname:  u.Nickname,
		IsGuest:   u.IsGuest,
		IsAgent:   u.IsAgent,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toDomainUser(u *model.User) *domain.User {
	return &domain.User{
		ID:        u.ID,
		Nickname:  u.Nickname,
		IsGuest:   u.IsGuest,
		IsAgent:   u.IsAgent,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toModelRoom(r *domain.Room) (*model.Room, error) {
	settings, err := json.Marshal(r.Settings)
	if err != nil {
		return nil, err
	}
	return &model.Room{
		ID:           r.ID,
		Code:         r.Code,
		Name:         r.Name,
		Password:     r.Password,
		Capacity:     r.Capacity,
		Phase:        string(r.Phase),
		HostID:       r.HostID,
		ScriptID:     r.ScriptID,
		CurrentStage: r.CurrentStage,
		Settings:     datatypes.JSON(settings),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}, nil
}

func toDomainRoom(r *model.Room) (*domain.Room, error) {
	var settings domain.Settings
	if len(r.Settings) > 0 {
		if err := json.Unmarshal(r.Settings, &settings); err != nil {
			return nil, err
		}
	}
	return &domain.Room{
		ID:           r.ID,
		Code:         r.Code,
		Name:         r.Name,
		Password:     r.Password,
		Capacity:     r.Capacity,
		Phase:        domain.Phase(r.Phase),
		HostID:       r.HostID,
		ScriptID:     r.ScriptID,
		CurrentStage: r.CurrentStage,
		Settings:     settings,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}, nil
}

func toModelParticipant(p *domain.Participant) *model.Participant {
	return &model.Participant{
		ID:             p.ID,
		RoomID:         p.RoomID,
		UserID:         p.UserID,
		Nickname:       p.Nickname,
		CharacterID:    p.CharacterID,
		Ready:          p.Ready,
		Alive:          p.Alive,
		IsAgent:        p.IsAgent,
		AgentProfileID: p.AgentProfileID,
		JoinedAt:       p.JoinedAt,
	}
}

func toDomainParticipant(p *model.Participant) *domain.Participant {
	return &domain.Participant{
		ID:             p.ID,
		RoomID:         p.RoomID,
		UserID:         p.UserID,
		Nickname:       p.Nickname,
		CharacterID:    p.CharacterID,
		Ready:          p.Ready,
		Alive:          p.Alive,
		IsAgent:        p.IsAgent,
		AgentProfileID: p.AgentProfileID,
		JoinedAt:       p.JoinedAt,
	}
}

func toModelScript(s *domain.Script) *model.Script {
	m := &model.Script{
		ID:           s.ID,
		AuthorID:     s.AuthorID,
		Title:        s.Title,
		Description:  s.Description,
		Overview:     s.Overview,
		Difficulty:   s.Difficulty,
		Tags:         s.Tags,
		PlayerCount:  s.PlayerCount,
		DurationMins: s.DurationMins,
		Solution:     s.Solution,
		CreatedAt:    time.Now().UTC(),
	}
	for _, st := range s.Stages {
		m.Stages = append(m.Stages, model.ScriptStage{
			ID:               st.ID,
			ScriptID:         s.ID,
			Number:           st.Number,
			Name:             st.Name,
			OpeningNarrative: st.OpeningNarrative,
			Goal:             st.Goal,
		})
	}
	for _, c := range s.Characters {
		m.Characters = append(m.Characters, model.ScriptCharacter{
			ID:         c.ID,
			ScriptID:   s.ID,
			Name:       c.Name,
			Gender:     c.Gender,
			IsCulprit:  c.IsCulprit,
			Backstory:  c.Backstory,
			PublicInfo: c.PublicInfo,
		})
	}
	for _, g := range s.Goals {
		m.Goals = append(m.Goals, model.CharacterGoal{
			ID:             g.ID,
			ScriptID:       s.ID,
			CharacterID:    g.CharacterID,
			Stage:          g.Stage,
			Description:    g.Description,
			Mandatory:      g.Mandatory,
			SearchAttempts: g.SearchAttempts,
		})
	}
	for _, c := range s.Clues {
		m.Clues = append(m.Clues, model.ScriptClue{
			ID:          c.ID,
			ScriptID:    s.ID,
			Name:        c.Name,
			Description: c.Description,
			ImageURL:    c.ImageURL,
			Location:    c.Location,
			Stage:       c.Stage,
			IsPublic:    c.IsPublic,
			CharacterID: c.CharacterID,
		})
	}
	for _, e := range s.Timeline {
		m.Timeline = append(m.Timeline, model.TimelineEvent{
			ID:          e.ID,
			ScriptID:    s.ID,
			Position:    e.Order,
			CharacterID: e.CharacterID,
			Description: e.Description,
			Truth:       e.Truth,
			IsPublic:    e.IsPublic,
		})
	}
	return m
}

func toDomainScript(m *model.Script) *domain.Script {
	s := &domain.Script{
		ID:           m.ID,
		AuthorID:     m.AuthorID,
		Title:        m.Title,
		Description:  m.Description,
		Overview:     m.Overview,
		Difficulty:   m.Difficulty,
		Tags:         m.Tags,
		PlayerCount:  m.PlayerCount,
		DurationMins: m.DurationMins,
		Solution:     m.Solution,
	}
	for _, st := range m.Stages {
		s.Stages = append(s.Stages, domain.Stage{
			ID:               st.ID,
			Number:           st.Number,
			Name:             st.Name,
			OpeningNarrative: st.OpeningNarrative,
			Goal:             st.Goal,
		})
	}
	sort.Slice(s.Stages, func(i, j int) bool { return s.Stages[i].Number < s.Stages[j].Number })
	for _, c := range m.Characters {
		s.Characters = append(s.Characters, domain.Character{
			ID:         c.ID,
			Name:       c.Name,
			Gender:     c.Gender,
			IsCulprit:  c.IsCulprit,
			Backstory:  c.Backstory,
			PublicInfo: c.PublicInfo,
		})
	}
	for _, g := range m.Goals {
		s.Goals = append(s.Goals, domain.CharacterGoal{
			ID:             g.ID,
			CharacterID:    g.CharacterID,
			Stage:          g.Stage,
			Description:    g.Description,
			Mandatory:      g.Mandatory,
			SearchAttempts: g.SearchAttempts,
		})
	}
	for _, c := range m.Clues {
		s.Clues = append(s.Clues, domain.Clue{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			ImageURL:    c.ImageURL,
			Location:    c.Location,
			Stage:       c.Stage,
			IsPublic:    c.IsPublic,
			CharacterID: c.CharacterID,
		})
	}
	for _, e := range m.Timeline {
		s.Timeline = append(s.Timeline, domain.TimelineEvent{
			ID:          e.ID,
			Order:       e.Position,
			CharacterID: e.CharacterID,
			Description: e.Description,
			Truth:       e.Truth,
			IsPublic:    e.IsPublic,
		})
	}
	sort.SliceStable(s.Timeline, func(i, j int) bool { return s.Timeline[i].Order < s.Timeline[j].Order })
	return s
}

func toModelSearch(a *domain.SearchAction) *model.SearchAction {
	return &model.SearchAction{
		ID:         a.ID,
		RoomID:     a.RoomID,
		SearcherID: a.SearcherID,
		ClueID:     a.ClueID,
		TargetID:   a.TargetID,
		Stage:      a.Stage,
		IsPublic:   a.IsPublic,
		CreatedAt:  a.CreatedAt,
	}
}

func toDomainSearch(a *model.SearchAction) *domain.SearchAction {
	return &domain.SearchAction{
		ID:         a.ID,
		RoomID:     a.RoomID,
		SearcherID: a.SearcherID,
		ClueID:     a.ClueID,
		TargetID:   a.TargetID,
		Stage:      a.Stage,
		IsPublic:   a.IsPublic,
		CreatedAt:  a.CreatedAt,
	}
}

func toModelVote(v *domain.Vote) *model.Vote {
	return &model.Vote{
		ID:       v.ID,
		RoomID:   v.RoomID,
		VoterID:  v.VoterID,
		TargetID: v.TargetID,
		Stage:    v.Stage,
		CastAt:   v.CastAt,
	}
}

func toDomainVote(v *model.Vote) *domain.Vote {
	return &domain.Vote{
		ID:       v.ID,
		RoomID:   v.RoomID,
		VoterID:  v.VoterID,
		TargetID: v.TargetID,
		Stage:    v.Stage,
		CastAt:   v.CastAt,
	}
}

func toModelLog(e *domain.LogEntry) *model.GameLog {
	return &model.GameLog{
		ID:          e.ID,
		RoomID:      e.RoomID,
		Kind:        string(e.Kind),
		SenderID:    e.SenderID,
		RecipientID: e.RecipientID,
		ClueID:      e.ClueID,
		Stage:       e.Stage,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt,
	}
}

func toDomainLog(e *model.GameLog) *domain.LogEntry {
	return &domain.LogEntry{
		ID:          e.ID,
		RoomID:      e.RoomID,
		Kind:        domain.LogKind(e.Kind),
		SenderID:    e.SenderID,
		RecipientID: e.RecipientID,
		ClueID:      e.ClueID,
		Stage:       e.Stage,
		Message:     e.Message,
		CreatedAt:   e.CreatedAt,
	}
}

func toModelProfile(p *domain.AgentProfile) *model.AgentProfile {
	return &model.AgentProfile{
		ID:                 p.ID,
		Name:               p.Name,
		Persona:            p.Persona,
		RespondProbability: p.RespondProbability,
		ResponseInterval:   int64(p.ResponseInterval / time.Second),
		CreatedAt:          p.CreatedAt,
	}
}

func toDomainProfile(p *model.AgentProfile) *domain.AgentProfile {
	return &domain.AgentProfile{
		ID:                 p.ID,
		Name:               p.Name,
		Persona:            p.Persona,
		RespondProbability: p.RespondProbability,
		ResponseInterval:   time.Duration(p.ResponseInterval) * time.Second,
		CreatedAt:          p.CreatedAt,
	}
}

func toModelInteraction(in *domain.Interaction) (*model.AgentInteraction, error) {
	raw, err := json.Marshal(in.Context)
	if err != nil {
		return nil, err
	}
	return &model.AgentInteraction{
		ID:            in.ID,
		RoomID:        in.RoomID,
		AgentID:       in.AgentID,
		TriggerUserID: in.TriggerUserID,
		Kind:          in.Kind,
		Context:       datatypes.JSON(raw),
		Response:      in.Response,
		CreatedAt:     in.CreatedAt,
	}, nil
}

func toDomainInteraction(in *model.AgentInteraction) (*domain.Interaction, error) {
	var ctxData map[string]any
	if len(in.Context) > 0 {
		if err := json.Unmarshal(in.Context, &ctxData); err != nil {
			return nil, err
		}
	}
	return &domain.Interaction{
		ID:            in.ID,
		RoomID:        in.RoomID,
		AgentID:       in.AgentID,
		TriggerUserID: in.TriggerUserID,
		Kind:          in.Kind,
		Context:       ctxData,
		Response:      in.Response,
		CreatedAt:     in.CreatedAt,
	}, nil
}

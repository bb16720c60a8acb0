package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

const defaultSearchAttempts = 2

// Request describes the script a room needs.
type Request struct {
	RoomID   uuid.UUID
	AuthorID uuid.UUID
	Seats    int
	Settings domain.Settings
}

// Generator produces a script through a Completer.
type Generator struct {
	completer Completer
	log       *slog.Logger
}

func NewGenerator(completer Completer, log *slog.Logger) *Generator {
	return &Generator{completer: completer, log: log}
}

func (g *Generator) Generate(ctx context.Context, req Request) (*domain.Script, error) {
	const op = "content.generator.Generate"
	log := g.log.With(slog.String("op", op), slog.String("room_id", req.RoomID.String()))

	reply, err := g.completer.Complete(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(req)},
	})
	if err != nil {
		return nil, err
	}

	script, err := ParseScript(reply, req)
	if err != nil {
		log.Warn("completion did not parse", slog.Int("reply_len", len(reply)))
		return nil, err
	}
	log.Info("script generated", slog.String("title", script.Title), slog.Int("stages", script.StageCount()))
	return script, nil
}

type scriptDoc struct {
	Script struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		Overview     string `json:"overview"`
		PlayerCount  int    `json:"player_count"`
		Difficulty   string `json:"difficulty"`
		Tags         string `json:"tags"`
		DurationMins int    `json:"duration_mins"`
	} `json:"script"`
	Characters []struct {
		Name       string `json:"name"`
		Gender     string `json:"gender"`
		IsMurderer bool   `json:"is_murderer"`
		Backstory  string `json:"backstory"`
		PublicInfo string `json:"public_info"`
	} `json:"characters"`
	Stages []struct {
		StageNumber      int    `json:"stage_number"`
		Name             string `json:"name"`
		OpeningNarrative string `json:"opening_narrative"`
		StageGoal        string `json:"stage_goal"`
	} `json:"stages"`
	Clues []struct {
		Name              string `json:"name"`
		Description       string `json:"description"`
		DiscoveryStageID  int    `json:"discovery_stage_id"`
		DiscoveryLocation string `json:"discovery_location"`
		IsPublic          bool   `json:"is_public"`
		Owner             string `json:"owner"`
	} `json:"clues"`
	Goals []struct {
		CharacterName   string `json:"character_name"`
		StageNumber     int    `json:"stage_number"`
		GoalDescription string `json:"goal_description"`
		Mandatory       bool   `json:"mandatory"`
		SearchAttempts  *int   `json:"search_attempts"`
	} `json:"character_stage_goals"`
	Timeline []struct {
		CharacterName string `json:"character_name"`
		Description   string `json:"description"`
		Truth         string `json:"truth"`
		IsPublic      bool   `json:"is_public"`
	} `json:"timeline"`
	Solution string `json:"solution"`
}

// ParseScript decodes a completion reply, assigns identifiers and validates
// the result against the room's seat count.
func ParseScript(reply string, req Request) (*domain.Script, error) {
	var doc scriptDoc
	if err := json.Unmarshal([]byte(stripFences(reply)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidScript, err)
	}

	script := &domain.Script{
		ID:           uuid.New(),
		AuthorID:     req.AuthorID,
		Title:        strings.TrimSpace(doc.Script.Title),
		Description:  doc.Script.Description,
		Overview:     doc.Script.Overview,
		Difficulty:   doc.Script.Difficulty,
		Tags:         doc.Script.Tags,
		PlayerCount:  doc.Script.PlayerCount,
		DurationMins: doc.Script.DurationMins,
		Solution:     doc.Solution,
	}
	if script.Difficulty == "" {
		script.Difficulty = req.Settings.Difficulty
	}
	if script.DurationMins == 0 {
		script.DurationMins = req.Settings.DurationMins
	}
	if script.PlayerCount == 0 {
		script.PlayerCount = req.Seats
	}

	byName := make(map[string]uuid.UUID, len(doc.Characters))
	for _, c := range doc.Characters {
		id := uuid.New()
		byName[c.Name] = id
		script.Characters = append(script.Characters, domain.Character{
			ID:         id,
			Name:       c.Name,
			Gender:     c.Gender,
			IsCulprit:  c.IsMurderer,
			Backstory:  c.Backstory,
			PublicInfo: c.PublicInfo,
		})
	}

	for _, s := range doc.Stages {
		script.Stages = append(script.Stages, domain.Stage{
			ID:               uuid.New(),
			Number:           s.StageNumber,
			Name:             s.Name,
			OpeningNarrative: s.OpeningNarrative,
			Goal:             s.StageGoal,
		})
	}

	for _, c := range doc.Clues {
		clue := domain.Clue{
			ID:          uuid.New(),
			Name:        c.Name,
			Description: c.Description,
			Location:    c.DiscoveryLocation,
			Stage:       c.DiscoveryStageID,
			IsPublic:    c.IsPublic,
		}
		if c.Owner != "" {
			id, ok := byName[c.Owner]
			if !ok {
				return nil, fmt.Errorf("%w: clue %q owned by unknown character %q", domain.ErrInvalidScript, c.Name, c.Owner)
			}
			clue.CharacterID = &id
		}
		script.Clues = append(script.Clues, clue)
	}

	for _, g := range doc.Goals {
		id, ok := byName[g.CharacterName]
		if !ok {
			return nil, fmt.Errorf("%w: goal for unknown character %q", domain.ErrInvalidScript, g.CharacterName)
		}
		attempts := defaultSearchAttempts
		if g.SearchAttempts != nil {
			attempts = *g.SearchAttempts
		}
		script.Goals = append(script.Goals, domain.CharacterGoal{
			ID:             uuid.New(),
			CharacterID:    id,
			Stage:          g.StageNumber,
			Description:    g.GoalDescription,
			Mandatory:      g.Mandatory,
			SearchAttempts: attempts,
		})
	}

	for i, e := range doc.Timeline {
		ev := domain.TimelineEvent{
			ID:          uuid.New(),
			Order:       i + 1,
			Description: e.Description,
			Truth:       e.Truth,
			IsPublic:    e.IsPublic,
		}
		if e.CharacterName != "" {
			id, ok := byName[e.CharacterName]
			if !ok {
				return nil, fmt.Errorf("%w: timeline names unknown character %q", domain.ErrInvalidScript, e.CharacterName)
			}
			ev.CharacterID = &id
		}
		if ev.Truth == "" {
			ev.Truth = ev.Description
		}
		script.Timeline = append(script.Timeline, ev)
	}

	if err := script.Validate(req.Seats); err != nil {
		return nil, err
	}
	return script, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Generate the murder mystery now.\n")
	fmt.Fprintf(&b, "- Theme: %s\n", req.Settings.Theme)
	fmt.Fprintf(&b, "- Player count: %d\n", req.Seats)
	fmt.Fprintf(&b, "- Difficulty: %s\n", req.Settings.Difficulty)
	fmt.Fprintf(&b, "- Game master personality: %s\n", req.Settings.DMPersonality)
	fmt.Fprintf(&b, "- Duration (minutes): %d\n", req.Settings.DurationMins)
	fmt.Fprintf(&b, "- Special rules: %s\n", req.Settings.SpecialRules)
	return b.String()
}

const systemPrompt = `You are a mystery writer designing a social deduction murder mystery.
Reply with a single JSON object and nothing else.

Rules:
1. Exactly one character has "is_murderer": true.
2. Stages are numbered from 1 without gaps and escalate toward the accusation.
3. Provide at least as many characters as the player count.
4. Every clue discovered in a stage must help some character finish that stage's goal.
   A private clue names its holder in "owner"; public clues leave "owner" empty.
5. Backstories, public info and goals must not contradict each other.
6. Timeline events may be private to a character; "truth" holds what really happened.

Shape:
{
  "script": {"title": "", "description": "", "overview": "", "player_count": 0, "difficulty": "", "tags": "a,b,c", "duration_mins": 0},
  "characters": [{"name": "", "gender": "", "is_murderer": false, "backstory": "", "public_info": ""}],
  "stages": [{"stage_number": 1, "name": "", "opening_narrative": "", "stage_goal": ""}],
  "clues": [{"name": "", "description": "", "discovery_stage_id": 1, "discovery_location": "", "is_public": true, "owner": ""}],
  "character_stage_goals": [{"character_name": "", "stage_number": 1, "goal_description": "", "mandatory": false, "search_attempts": 2}],
  "timeline": [{"character_name": "", "description": "", "truth": "", "is_public": true}],
  "solution": ""
}`

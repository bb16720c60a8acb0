package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Script is a generated mystery bundle. Only goal counters and clue ownership
// change after creation.
type Script struct {
	ID           uuid.UUID
	AuthorID     uuid.UUID
	Title        string
	Description  string
	Overview     string
	Difficulty   string
	Tags         string
	PlayerCount  int
	DurationMins int
	Solution     string
	Stages       []Stage
	Characters   []Character
	Clues        []Clue
	Goals        []CharacterGoal
	Timeline     []TimelineEvent
}

type Stage struct {
	ID               uuid.UUID
	Number           int
	Name             string
	OpeningNarrative string
	Goal             string
}

type Character struct {
	ID         uuid.UUID
	Name       string
	Gender     string
	IsCulprit  bool
	Backstory  string
	PublicInfo string
}

// CharacterGoal is the private objective of a character during one stage.
type CharacterGoal struct {
	ID             uuid.UUID
	CharacterID    uuid.UUID
	Stage          int
	Description    string
	Mandatory      bool
	SearchAttempts int
}

// Clue is public when IsPublic is set; otherwise it belongs to CharacterID.
// Stage zero means discoverable from the start.
type Clue struct {
	ID          uuid.UUID
	Name        string
	Description string
	ImageURL    string
	Location    string
	Stage       int
	IsPublic    bool
	CharacterID *uuid.UUID
}

func (c *Clue) OwnedBy(characterID uuid.UUID) bool {
	return c.CharacterID != nil && *c.CharacterID == characterID
}

// TimelineEvent is one statement of the story. Private events belong to a
// character and may differ from the Truth revealed when the game ends.
type TimelineEvent struct {
	ID          uuid.UUID
	Order       int
	CharacterID *uuid.UUID
	Description string
	Truth       string
	IsPublic    bool
}

func (s *Script) StageCount() int {
	return len(s.Stages)
}

func (s *Script) Stage(number int) *Stage {
	for i := range s.Stages {
		if s.Stages[i].Number == number {
			return &s.Stages[i]
		}
	}
	return nil
}

func (s *Script) Character(id uuid.UUID) *Character {
	for i := range s.Characters {
		if s.Characters[i].ID == id {
			return &s.Characters[i]
		}
	}
	return nil
}

func (s *Script) Clue(id uuid.UUID) *Clue {
	for i := range s.Clues {
		if s.Clues[i].ID == id {
			return &s.Clues[i]
		}
	}
	return nil
}

func (s *Script) Goal(characterID uuid.UUID, stage int) *CharacterGoal {
	for i := range s.Goals {
		if s.Goals[i].CharacterID == characterID && s.Goals[i].Stage == stage {
			return &s.Goals[i]
		}
	}
	return nil
}

func (s *Script) Culprit() *Character {
	for i := range s.Characters {
		if s.Characters[i].IsCulprit {
			return &s.Characters[i]
		}
	}
	return nil
}

// Validate checks the structural rules every stored script must satisfy.
func (s *Script) Validate(seats int) error {
	if s.Title == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidScript)
	}
	if len(s.Stages) == 0 {
		return fmt.Errorf("%w: no stages", ErrInvalidScript)
	}
	seen := make(map[int]bool, len(s.Stages))
	for _, st := range s.Stages {
		if st.Number < 1 || st.Number > len(s.Stages) || seen[st.Number] {
			return fmt.Errorf("%w: stage numbers must be unique and contiguous from 1", ErrInvalidScript)
		}
		seen[st.Number] = true
	}

	culprits := 0
	chars := make(map[uuid.UUID]bool, len(s.Characters))
	for _, c := range s.Characters {
		chars[c.ID] = true
		if c.IsCulprit {
			culprits++
		}
	}
	if culprits != 1 {
		return fmt.Errorf("%w: expected exactly one culprit, got %d", ErrInvalidScript, culprits)
	}
	if seats > 0 && len(s.Characters) < seats {
		return fmt.Errorf("%w: %d characters for %d seats", ErrInvalidScript, len(s.Characters), seats)
	}

	for _, g := range s.Goals {
		if !chars[g.CharacterID] || !seen[g.Stage] {
			return fmt.Errorf("%w: goal references unknown character or stage", ErrInvalidScript)
		}
		if g.SearchAttempts < 0 {
			return fmt.Errorf("%w: negative search attempts", ErrInvalidScript)
		}
	}
	for _, c := range s.Clues {
		if c.Stage != 0 && !seen[c.Stage] {
			return fmt.Errorf("%w: clue %q references unknown stage %d", ErrInvalidScript, c.Name, c.Stage)
		}
		if c.CharacterID != nil && !chars[*c.CharacterID] {
			return fmt.Errorf("%w: clue %q references unknown character", ErrInvalidScript, c.Name)
		}
	}
	for _, e := range s.Timeline {
		if e.CharacterID != nil && !chars[*e.CharacterID] {
			return fmt.Errorf("%w: timeline references unknown character", ErrInvalidScript)
		}
	}
	return nil
}

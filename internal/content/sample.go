package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

const sampleStages = 3

var sampleCast = []struct {
	name, gender, public string
}{
	{"Margaret Hale", "female", "The widow's younger sister, visiting for the reading of the will."},
	{"Doctor Abel Finch", "male", "The family physician who signed the first death certificate."},
	{"Ivy Crane", "female", "The housekeeper of twenty years."},
	{"Tobias Ward", "male", "The estate lawyer, in charge of the will."},
	{"Celia Moss", "female", "A painter lodging in the east wing."},
	{"Rupert Lane", "male", "The nephew with heavy gambling debts."},
	{"Nora Quill", "female", "A journalist who arrived uninvited."},
	{"Felix Grey", "male", "The gardener, new this season."},
}

var sampleLocations = []string{"study", "conservatory", "wine cellar", "east wing", "boathouse", "library"}

// SampleGenerator builds a fixed script without any external call.
type SampleGenerator struct{}

func (SampleGenerator) Generate(_ context.Context, req Request) (*domain.Script, error) {
	seats := max(req.Seats, 3)
	theme := req.Settings.Theme
	if theme == "" {
		theme = "a country manor"
	}

	script := &domain.Script{
		ID:           uuid.New(),
		AuthorID:     req.AuthorID,
		Title:        "The Last Will at Harrow House",
		Description:  fmt.Sprintf("A death during a storm in %s. Everyone had a reason.", theme),
		Overview:     "The master of the house is found dead on the night his new will was to be read.",
		Difficulty:   req.Settings.Difficulty,
		Tags:         "classic,manor,whodunit",
		PlayerCount:  seats,
		DurationMins: req.Settings.DurationMins,
	}

	for i := 0; i < seats; i++ {
		cast := sampleCast[i%len(sampleCast)]
		name := cast.name
		if i >= len(sampleCast) {
			name = fmt.Sprintf("%s %d", cast.name, i/len(sampleCast)+1)
		}
		script.Characters = append(script.Characters, domain.Character{
			ID:         uuid.New(),
			Name:       name,
			Gender:     cast.gender,
			IsCulprit:  i == seats-1,
			Backstory:  fmt.Sprintf("%s has a secret connected to the will.", name),
			PublicInfo: cast.public,
		})
	}
	culprit := script.Characters[seats-1]
	script.Solution = fmt.Sprintf("%s switched the decanter in the study before dinner.", culprit.Name)

	for n := 1; n <= sampleStages; n++ {
		script.Stages = append(script.Stages, domain.Stage{
			ID:               uuid.New(),
			Number:           n,
			Name:             fmt.Sprintf("Act %d", n),
			OpeningNarrative: fmt.Sprintf("The storm grows louder. Act %d begins.", n),
			Goal:             "Share what you know and question the others.",
		})
		script.Clues = append(script.Clues, domain.Clue{
			ID:          uuid.New(),
			Name:        fmt.Sprintf("Notice board, act %d", n),
			Description: "A note pinned by the butler listing who was seen where.",
			Location:    "hall",
			Stage:       n,
			IsPublic:    true,
		})
		for i := range script.Characters {
			owner := script.Characters[i].ID
			script.Clues = append(script.Clues, domain.Clue{
				ID:          uuid.New(),
				Name:        fmt.Sprintf("%s's belongings, act %d", script.Characters[i].Name, n),
				Description: fmt.Sprintf("Something %s would rather keep hidden.", script.Characters[i].Name),
				Location:    sampleLocations[(i+n)%len(sampleLocations)],
				Stage:       n,
				CharacterID: &owner,
			})
			script.Goals = append(script.Goals, domain.CharacterGoal{
				ID:             uuid.New(),
				CharacterID:    owner,
				Stage:          n,
				Description:    "Find out who else was near the study.",
				SearchAttempts: defaultSearchAttempts,
			})
		}
	}

	for i, c := range script.Characters {
		id := c.ID
		ev := domain.TimelineEvent{
			ID:          uuid.New(),
			Order:       i + 1,
			CharacterID: &id,
			Description: fmt.Sprintf("%s says they were in the %s all evening.", c.Name, sampleLocations[i%len(sampleLocations)]),
		}
		ev.Truth = ev.Description
		if c.IsCulprit {
			ev.Truth = fmt.Sprintf("%s slipped into the study at nine.", c.Name)
		}
		script.Timeline = append(script.Timeline, ev)
	}
	script.Timeline = append(script.Timeline, domain.TimelineEvent{
		ID:          uuid.New(),
		Order:       len(script.Timeline) + 1,
		Description: "The body is discovered at midnight.",
		Truth:       "The body is discovered at midnight.",
		IsPublic:    true,
	})

	if err := script.Validate(req.Seats); err != nil {
		return nil, err
	}
	return script, nil
}

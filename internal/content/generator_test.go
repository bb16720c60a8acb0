package content_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/content"
	"github.com/immxrtalbeast/mystery_room/internal/content/mocks"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const validReply = "```json\n" + `{
  "script": {"title": "Harbour Lights", "description": "d", "player_count": 2, "difficulty": "easy", "tags": "sea"},
  "characters": [
    {"name": "Ann", "gender": "female", "is_murderer": false, "backstory": "b", "public_info": "p"},
    {"name": "Bo", "gender": "male", "is_murderer": true, "backstory": "b", "public_info": "p"}
  ],
  "stages": [
    {"stage_number": 1, "name": "One", "opening_narrative": "n", "stage_goal": "g"},
    {"stage_number": 2, "name": "Two", "opening_narrative": "n", "stage_goal": "g"}
  ],
  "clues": [
    {"name": "Rope", "description": "wet", "discovery_stage_id": 1, "discovery_location": "dock", "is_public": false, "owner": "Bo"},
    {"name": "Map", "description": "torn", "discovery_stage_id": 2, "discovery_location": "pier", "is_public": true}
  ],
  "character_stage_goals": [
    {"character_name": "Ann", "stage_number": 1, "goal_description": "find rope"},
    {"character_name": "Bo", "stage_number": 1, "goal_description": "hide rope", "search_attempts": 0}
  ],
  "timeline": [{"character_name": "Bo", "description": "at home", "truth": "at the dock"}],
  "solution": "Bo did it"
}` + "\n```"

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func request(seats int) content.Request {
	return content.Request{
		RoomID:   uuid.New(),
		AuthorID: uuid.New(),
		Seats:    seats,
		Settings: domain.Settings{Theme: "harbour", Difficulty: "easy", DMPersonality: "calm", DurationMins: 60, SpecialRules: "none"},
	}
}

func TestGenerateParsesReply(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().
		Complete(gomock.Any(), gomock.Len(2)).
		Return(validReply, nil)

	script, err := content.NewGenerator(completer, logger()).Generate(context.Background(), request(2))
	require.NoError(t, err)

	assert.Equal(t, "Harbour Lights", script.Title)
	assert.Equal(t, 2, script.StageCount())
	require.NotNil(t, script.Culprit())
	assert.Equal(t, "Bo", script.Culprit().Name)

	rope := script.Clues[0]
	require.NotNil(t, rope.CharacterID)
	assert.Equal(t, script.Culprit().ID, *rope.CharacterID)
	assert.Nil(t, script.Clues[1].CharacterID)

	ann := script.Characters[0]
	assert.Equal(t, 2, script.Goal(ann.ID, 1).SearchAttempts)
	assert.Equal(t, 0, script.Goal(script.Culprit().ID, 1).SearchAttempts)
	assert.Equal(t, "at the dock", script.Timeline[0].Truth)
	assert.Equal(t, 60, script.DurationMins)
}

func TestGeneratePropagatesCompleterError(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockCompleter(ctrl)
	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", domain.ErrGenerationFailed)

	_, err := content.NewGenerator(completer, logger()).Generate(context.Background(), request(2))
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}

func TestParseScriptRejects(t *testing.T) {
	cases := map[string]string{
		"not json":      "sorry, I cannot help",
		"two culprits":  `{"script":{"title":"t"},"characters":[{"name":"a","is_murderer":true},{"name":"b","is_murderer":true}],"stages":[{"stage_number":1}]}`,
		"stage gap":     `{"script":{"title":"t"},"characters":[{"name":"a","is_murderer":true},{"name":"b"}],"stages":[{"stage_number":1},{"stage_number":3}]}`,
		"unknown owner": `{"script":{"title":"t"},"characters":[{"name":"a","is_murderer":true},{"name":"b"}],"stages":[{"stage_number":1}],"clues":[{"name":"c","owner":"z"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := content.ParseScript(raw, request(2))
			assert.True(t, errors.Is(err, domain.ErrInvalidScript), err)
		})
	}
}

func TestParseScriptNeedsEnoughCharacters(t *testing.T) {
	_, err := content.ParseScript(validReply, request(3))
	assert.ErrorIs(t, err, domain.ErrInvalidScript)
}

func TestSampleGeneratorFitsSeats(t *testing.T) {
	for _, seats := range []int{1, 3, 5, 10} {
		script, err := content.SampleGenerator{}.Generate(context.Background(), request(seats))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(script.Characters), seats)
		assert.NoError(t, script.Validate(seats))
		for _, c := range script.Characters {
			assert.NotNil(t, script.Goal(c.ID, 1))
		}
	}
}

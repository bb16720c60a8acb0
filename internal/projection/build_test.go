package projection_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type world struct {
	st                *domain.GameState
	alice, bob, carol *domain.Participant
	letter, boots     domain.Clue
	notice, glove     domain.Clue
}

// newWorld seats three players on a two stage script. Carol holds the culprit.
func newWorld(phase domain.Phase, stage int) *world {
	chars := []domain.Character{
		{ID: uuid.New(), Name: "Alice", Backstory: "a"},
		{ID: uuid.New(), Name: "Bob", Backstory: "b"},
		{ID: uuid.New(), Name: "Carol", Backstory: "c", IsCulprit: true},
	}
	owner := func(i int) *uuid.UUID {
		id := chars[i].ID
		return &id
	}
	script := &domain.Script{
		ID:    uuid.New(),
		Title: "Manor",
		Stages: []domain.Stage{
			{ID: uuid.New(), Number: 2, Name: "Second"},
			{ID: uuid.New(), Number: 1, Name: "First"},
		},
		Characters: chars,
		Clues: []domain.Clue{
			{ID: uuid.New(), Name: "Notice", IsPublic: true},
			{ID: uuid.New(), Name: "Letter", Stage: 1, CharacterID: owner(0)},
			{ID: uuid.New(), Name: "Boots", Stage: 1, CharacterID: owner(1)},
			{ID: uuid.New(), Name: "Glove", Stage: 2, CharacterID: owner(2)},
		},
		Goals: []domain.CharacterGoal{
			{ID: uuid.New(), CharacterID: chars[0].ID, Stage: 1, Description: "find the boots", SearchAttempts: 2},
		},
		Timeline: []domain.TimelineEvent{
			{ID: uuid.New(), Order: 1, Description: "dinner served", IsPublic: true},
			{ID: uuid.New(), Order: 2, Description: "I was in the library", Truth: "I was in the garden", CharacterID: owner(2)},
		},
	}

	room := domain.NewRoom("manor", uuid.Nil, 3)
	room.Phase = phase
	room.CurrentStage = stage
	room.ScriptID = &script.ID

	seat := func(i int, name string) *domain.Participant {
		p := domain.NewParticipant(room.ID, domain.NewUser(name))
		id := chars[i].ID
		p.CharacterID = &id
		return p
	}
	w := &world{
		alice: seat(0, "alice"),
		bob:   seat(1, "bob"),
		carol: seat(2, "carol"),
	}
	room.HostID = w.alice.UserID
	w.notice, w.letter, w.boots, w.glove = script.Clues[0], script.Clues[1], script.Clues[2], script.Clues[3]
	w.st = &domain.GameState{
		Room:         room,
		Participants: []*domain.Participant{w.alice, w.bob, w.carol},
		Script:       script,
	}
	return w
}

func (w *world) project(viewer uuid.UUID) projection.Snapshot {
	return projection.Project(projection.Input{State: w.st, Viewer: viewer, Online: map[uuid.UUID]bool{w.alice.UserID: true}})
}

func names(views []projection.ClueView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}

func TestProjectLobbyHidesScript(t *testing.T) {
	w := newWorld(domain.PhaseWaiting, 0)
	w.st.Script.Overview = "secret overview"

	snap, ok := w.project(w.bob.UserID).(*projection.LobbySnapshot)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseWaiting, snap.SnapshotPhase())
	assert.Empty(t, snap.Room.Overview)
	require.Len(t, snap.Players, 3)
	assert.True(t, snap.Players[0].IsHost)
	assert.True(t, snap.Players[0].IsOnline)
	assert.False(t, snap.Players[1].IsOnline)
}

func TestProjectRoleSelection(t *testing.T) {
	w := newWorld(domain.PhaseSelectingRole, 0)
	w.carol.CharacterID = nil

	snap, ok := w.project(w.bob.UserID).(*projection.RoleSelectionSnapshot)
	require.True(t, ok)
	require.NotNil(t, snap.MyCharacterID)
	assert.Equal(t, *w.bob.CharacterID, *snap.MyCharacterID)
	require.Len(t, snap.Characters, 3)
	assert.NotNil(t, snap.Characters[0].SelectedBy)
	assert.Nil(t, snap.Characters[2].SelectedBy)
}

func TestProjectPlayIsViewerScoped(t *testing.T) {
	w := newWorld(domain.PhaseInProgress, 1)

	alice, ok := w.project(w.alice.UserID).(*projection.PlaySnapshot)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Notice", "Letter"}, names(alice.Clues))
	require.NotNil(t, alice.Me)
	assert.Equal(t, "Alice", alice.Me.Name)
	assert.Nil(t, alice.Search)

	require.Len(t, alice.Stages, 1)
	assert.Equal(t, "First", alice.Stages[0].Name)
	require.NotNil(t, alice.Stages[0].MyGoal)
	assert.Equal(t, 2, alice.Stages[0].MyGoal.SearchAttempts)

	// only the culprit sees their own private timeline line, never the truth
	require.Len(t, alice.Timeline, 1)
	carol := w.project(w.carol.UserID).(*projection.PlaySnapshot)
	require.Len(t, carol.Timeline, 2)
	assert.Empty(t, carol.Timeline[1].Truth)
	assert.True(t, carol.Me.IsCulprit)
	assert.NotContains(t, names(carol.Clues), "Glove", "stage two clue is not discoverable yet")
}

func TestProjectStagesSorted(t *testing.T) {
	w := newWorld(domain.PhaseInProgress, 2)
	snap := w.project(w.bob.UserID).(*projection.PlaySnapshot)
	require.Len(t, snap.Stages, 2)
	assert.Equal(t, 1, snap.Stages[0].Number)
	assert.Equal(t, 2, snap.Stages[1].Number)
	assert.Nil(t, snap.Stages[0].MyGoal)
}

func TestProjectSearching(t *testing.T) {
	w := newWorld(domain.PhaseSearching, 1)
	w.st.Searches = []*domain.SearchAction{{
		ID:         uuid.New(),
		SearcherID: w.alice.UserID,
		TargetID:   w.bob.UserID,
		ClueID:     w.boots.ID,
		Stage:      1,
	}}

	snap := w.project(w.alice.UserID).(*projection.PlaySnapshot)
	require.NotNil(t, snap.Search)
	assert.Equal(t, 2, snap.Search.AttemptsLeft)
	assert.ElementsMatch(t, []string{"Notice", "Letter", "Boots"}, names(snap.Clues))

	require.Len(t, snap.Search.Targets, 2)
	for _, target := range snap.Search.Targets {
		assert.NotEqual(t, w.alice.UserID, target.UserID)
		// bob's only clue is obtained, carol's is from a later stage
		assert.Empty(t, target.AvailableClues)
	}
	require.Len(t, snap.Search.Obtained, 1)
	assert.Equal(t, projection.SourceSearch, snap.Search.Obtained[0].Source)

	bob := w.project(w.bob.UserID).(*projection.PlaySnapshot)
	require.NotNil(t, bob.Search)
	assert.Zero(t, bob.Search.AttemptsLeft)
	for _, target := range bob.Search.Targets {
		if target.UserID == w.alice.UserID {
			require.Len(t, target.AvailableClues, 1)
			assert.Equal(t, "Letter", target.AvailableClues[0].Name)
		}
	}
}

func TestVisibleCluesDeduplicates(t *testing.T) {
	w := newWorld(domain.PhaseSearching, 1)
	w.st.Searches = []*domain.SearchAction{{SearcherID: w.alice.UserID, ClueID: w.notice.ID}}

	clues := projection.VisibleClues(w.st, w.alice.UserID)
	assert.Equal(t, []string{"Notice", "Letter"}, names(clues))
	assert.Equal(t, projection.SourceScript, clues[0].Source)
}

func TestProjectVoting(t *testing.T) {
	w := newWorld(domain.PhaseVoting, 2)
	now := time.Now()
	w.st.Votes = []*domain.Vote{
		{VoterID: w.alice.UserID, TargetID: w.carol.UserID, CastAt: now},
	}

	alice := w.project(w.alice.UserID).(*projection.VotingSnapshot)
	require.NotNil(t, alice.MyVote)
	assert.Equal(t, w.carol.UserID, *alice.MyVote)
	assert.Equal(t, 1, alice.Tally.TotalVotes)

	bob := w.project(w.bob.UserID).(*projection.VotingSnapshot)
	assert.Nil(t, bob.MyVote)
}

func TestProjectFinishedRevealsTruth(t *testing.T) {
	w := newWorld(domain.PhaseFinished, 2)
	w.st.Script.Solution = "Carol did it"
	w.st.Votes = []*domain.Vote{
		{VoterID: w.alice.UserID, TargetID: w.carol.UserID, CastAt: time.Now()},
	}

	snap, ok := w.project(w.bob.UserID).(*projection.FinishedSnapshot)
	require.True(t, ok)
	assert.Equal(t, "Carol did it", snap.Solution)
	require.Len(t, snap.Timeline, 2)
	assert.Equal(t, "I was in the garden", snap.Timeline[1].Truth)
	assert.True(t, snap.Outcome.CulpritCaught)
}

func TestProjectDissolved(t *testing.T) {
	w := newWorld(domain.PhaseDissolved, 0)
	snap := w.project(w.alice.UserID)
	assert.Equal(t, domain.PhaseDissolved, snap.SnapshotPhase())
}

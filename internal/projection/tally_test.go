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

func vote(voter, target uuid.UUID, at time.Time) *domain.Vote {
	return &domain.Vote{ID: uuid.New(), VoterID: voter, TargetID: target, CastAt: at}
}

func TestPlurality(t *testing.T) {
	base := time.Date(2025, 1, 1, 20, 0, 0, 0, time.UTC)
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name  string
		votes []*domain.Vote
		want  uuid.UUID
		found bool
	}{
		{name: "no votes"},
		{
			name:  "clear winner",
			votes: []*domain.Vote{vote(a, c, base), vote(b, c, base.Add(time.Second)), vote(c, a, base)},
			want:  c,
			found: true,
		},
		{
			name: "tie goes to whoever reached the top count first",
			votes: []*domain.Vote{
				vote(a, c, base),
				vote(b, d, base.Add(time.Second)),
				vote(c, d, base.Add(2*time.Second)),
				vote(d, c, base.Add(3*time.Second)),
			},
			want:  d,
			found: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := projection.Plurality(tt.votes)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPluralityTieAtSameInstant(t *testing.T) {
	at := time.Now()
	x, y := uuid.New(), uuid.New()
	want := x
	if y.String() < x.String() {
		want = y
	}

	got, ok := projection.Plurality([]*domain.Vote{vote(uuid.New(), x, at), vote(uuid.New(), y, at)})
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestBuildTally(t *testing.T) {
	w := newWorld(domain.PhaseVoting, 2)
	now := time.Now()
	w.st.Votes = []*domain.Vote{
		vote(w.bob.UserID, w.carol.UserID, now.Add(time.Second)),
		vote(w.alice.UserID, w.carol.UserID, now),
		vote(w.carol.UserID, w.bob.UserID, now.Add(2*time.Second)),
	}

	tally := projection.BuildTally(w.st)
	assert.Equal(t, 3, tally.TotalVotes)
	assert.Equal(t, 3, tally.Voters)
	require.Len(t, tally.Counts, 2)
	assert.Equal(t, w.carol.UserID, tally.Counts[0].UserID)
	assert.Equal(t, 2, tally.Counts[0].Count)
	assert.Equal(t, "carol", tally.Counts[0].Nickname)

	require.Len(t, tally.Details, 3)
	assert.Equal(t, "alice", tally.Details[0].VoterNickname, "details are ordered by cast time")
	require.NotNil(t, tally.LeaderID)
	assert.Equal(t, w.carol.UserID, *tally.LeaderID)
}

func TestJudge(t *testing.T) {
	w := newWorld(domain.PhaseFinished, 2)

	out := projection.Judge(w.st)
	assert.Nil(t, out.AccusedID)
	assert.Equal(t, "Carol", out.CulpritName)
	require.NotNil(t, out.CulpritID)
	assert.Equal(t, w.carol.UserID, *out.CulpritID)
	assert.False(t, out.CulpritCaught)

	w.st.Votes = []*domain.Vote{vote(w.carol.UserID, w.bob.UserID, time.Now())}
	out = projection.Judge(w.st)
	require.NotNil(t, out.AccusedID)
	assert.Equal(t, "bob", out.AccusedName)
	assert.False(t, out.CulpritCaught)

	// an unheld culprit character can never be caught
	w.carol.CharacterID = nil
	w.st.Votes = []*domain.Vote{vote(w.alice.UserID, w.carol.UserID, time.Now())}
	out = projection.Judge(w.st)
	assert.Nil(t, out.CulpritID)
	assert.False(t, out.CulpritCaught)
}

func TestBuildTallyCountsSeatedVotersOnly(t *testing.T) {
	w := newWorld(domain.PhaseVoting, 2)
	departed := uuid.New()
	now := time.Now()
	w.st.Votes = []*domain.Vote{
		vote(w.alice.UserID, w.bob.UserID, now),
		vote(departed, w.bob.UserID, now.Add(time.Second)),
		vote(w.bob.UserID, departed, now.Add(2*time.Second)),
		vote(w.carol.UserID, w.alice.UserID, now.Add(3*time.Second)),
	}
	w.carol.CharacterID = nil

	tally := projection.BuildTally(w.st)
	assert.Equal(t, 2, tally.TotalVotes)
	assert.Equal(t, 2, tally.Voters)
	require.Len(t, tally.Details, 2)
	for _, d := range tally.Details {
		assert.NotEqual(t, departed, d.VoterID)
		assert.NotEqual(t, departed, d.TargetID)
	}

	w.bob.Alive = false
	assert.Equal(t, 1, projection.BuildTally(w.st).Voters)
}

func TestJudgeIgnoresDepartedBallots(t *testing.T) {
	w := newWorld(domain.PhaseFinished, 2)
	departed := uuid.New()
	now := time.Now()
	w.st.Votes = []*domain.Vote{
		vote(w.alice.UserID, w.bob.UserID, now),
		vote(departed, w.carol.UserID, now.Add(time.Second)),
		vote(uuid.New(), w.carol.UserID, now.Add(2*time.Second)),
		vote(w.carol.UserID, departed, now.Add(3*time.Second)),
	}

	out := projection.Judge(w.st)
	require.NotNil(t, out.AccusedID)
	assert.Equal(t, w.bob.UserID, *out.AccusedID)
	assert.False(t, out.CulpritCaught)
}

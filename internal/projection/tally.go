package projection

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

// BuildTally groups the current ballots by target.
func BuildTally(st *domain.GameState) Tally {
	names := make(map[uuid.UUID]string, len(st.Participants))
	for _, p := range st.Participants {
		names[p.UserID] = p.Nickname
	}

	votes := st.CountedVotes()
	counts := make(map[uuid.UUID]int)
	details := make([]VoteDetail, 0, len(votes))
	for _, v := range votes {
		counts[v.TargetID]++
		details = append(details, VoteDetail{
			VoterID:        v.VoterID,
			VoterNickname:  names[v.VoterID],
			TargetID:       v.TargetID,
			TargetNickname: names[v.TargetID],
			CastAt:         v.CastAt,
		})
	}
	sort.SliceStable(details, func(i, j int) bool { return details[i].CastAt.Before(details[j].CastAt) })

	out := Tally{
		Counts:     make([]VoteCount, 0, len(counts)),
		Details:    details,
		TotalVotes: len(votes),
		Voters:     len(st.Voters()),
	}
	for target, n := range counts {
		out.Counts = append(out.Counts, VoteCount{UserID: target, Nickname: names[target], Count: n})
	}
	sort.Slice(out.Counts, func(i, j int) bool {
		if out.Counts[i].Count != out.Counts[j].Count {
			return out.Counts[i].Count > out.Counts[j].Count
		}
		return out.Counts[i].UserID.String() < out.Counts[j].UserID.String()
	})

	if leader, ok := Plurality(votes); ok {
		out.LeaderID = &leader
	}
	return out
}

// Plurality returns the most voted target. Among tied targets the one that
// reached the top count earliest wins; equal instants fall back to the
// smaller user ID.
func Plurality(votes []*domain.Vote) (uuid.UUID, bool) {
	if len(votes) == 0 {
		return uuid.Nil, false
	}

	byTarget := make(map[uuid.UUID][]time.Time)
	for _, v := range votes {
		byTarget[v.TargetID] = append(byTarget[v.TargetID], v.CastAt)
	}

	top := 0
	for _, times := range byTarget {
		if len(times) > top {
			top = len(times)
		}
	}

	var (
		winner  uuid.UUID
		reached time.Time
		found   bool
	)
	for target, times := range byTarget {
		if len(times) != top {
			continue
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		at := times[top-1]
		if !found || at.Before(reached) || (at.Equal(reached) && target.String() < winner.String()) {
			winner, reached, found = target, at, true
		}
	}
	return winner, found
}

// Judge compares the plurality target with whoever holds the culprit character.
func Judge(st *domain.GameState) Outcome {
	var out Outcome
	if st.Script == nil {
		return out
	}

	culprit := st.Script.Culprit()
	if culprit != nil {
		out.CulpritName = culprit.Name
		if holder := st.Holder(culprit.ID); holder != nil {
			uid := holder.UserID
			out.CulpritID = &uid
		}
	}

	accused, ok := Plurality(st.CountedVotes())
	if !ok {
		return out
	}
	out.AccusedID = &accused
	if p := st.Participant(accused); p != nil {
		out.AccusedName = p.Nickname
	}
	out.CulpritCaught = out.CulpritID != nil && *out.CulpritID == accused
	return out
}

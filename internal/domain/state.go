package domain

import (
	"sort"

	"github.com/google/uuid"
)

// GameState is everything needed to judge and project one room.
type GameState struct {
	Room         *Room
	Participants []*Participant
	Script       *Script
	Searches     []*SearchAction
	Votes        []*Vote
}

func (s *GameState) Participant(userID uuid.UUID) *Participant {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// Holder returns the participant currently assigned characterID.
func (s *GameState) Holder(characterID uuid.UUID) *Participant {
	for _, p := range s.Participants {
		if p.Holds(characterID) {
			return p
		}
	}
	return nil
}

func (s *GameState) Humans() []*Participant {
	out := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if !p.IsAgent {
			out = append(out, p)
		}
	}
	return out
}

func (s *GameState) Agents() []*Participant {
	out := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.IsAgent {
			out = append(out, p)
		}
	}
	return out
}

// AllReady reports whether every human is ready and every participant holds a character.
func (s *GameState) AllReady() bool {
	if len(s.Participants) == 0 {
		return false
	}
	for _, p := range s.Participants {
		if !p.HasCharacter() {
			return false
		}
		if !p.IsAgent && !p.Ready {
			return false
		}
	}
	return true
}

// NextHost picks the earliest-joined remaining human other than leaving.
func (s *GameState) NextHost(leaving uuid.UUID) *Participant {
	candidates := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.UserID != leaving && !p.IsAgent {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].JoinedAt.Before(candidates[j].JoinedAt)
	})
	return candidates[0]
}

// Searched reports whether userID already obtained clueID.
func (s *GameState) Searched(userID, clueID uuid.UUID) bool {
	for _, a := range s.Searches {
		if a.SearcherID == userID && a.ClueID == clueID {
			return true
		}
	}
	return false
}

func (s *GameState) Vote(voterID uuid.UUID) *Vote {
	for _, v := range s.Votes {
		if v.VoterID == voterID {
			return v
		}
	}
	return nil
}

// Voters returns the participants whose ballot decides the vote: they hold a
// living character.
func (s *GameState) Voters() []*Participant {
	var out []*Participant
	for _, p := range s.Participants {
		if p.HasCharacter() && p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// CountedVotes drops ballots cast by or aimed at someone no longer seated.
func (s *GameState) CountedVotes() []*Vote {
	out := make([]*Vote, 0, len(s.Votes))
	for _, v := range s.Votes {
		if s.Participant(v.VoterID) != nil && s.Participant(v.TargetID) != nil {
			out = append(out, v)
		}
	}
	return out
}

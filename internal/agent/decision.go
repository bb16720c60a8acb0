package agent

import (
	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
)

// Intent is what an agent has decided to do before any speech is attached.
type Intent string

const (
	IntentRemark Intent = "remark"
	IntentReply  Intent = "reply"
	IntentSearch Intent = "search"
	IntentVote   Intent = "vote"
)

type decision struct {
	intent    Intent
	clueID    uuid.UUID
	targetID  uuid.UUID
	recipient uuid.UUID
	speaks    bool
}

// decideAutonomous picks a phase-appropriate action or reports none.
func decideAutonomous(st *domain.GameState, me *domain.Participant, pick func(n int) int) (decision, bool) {
	switch st.Room.Phase {
	case domain.PhaseInProgress:
		return decision{intent: IntentRemark, speaks: true}, true
	case domain.PhaseSearching:
		clues := searchable(st, me)
		if len(clues) == 0 {
			return decision{}, false
		}
		return decision{intent: IntentSearch, clueID: clues[pick(len(clues))]}, true
	case domain.PhaseVoting:
		if !me.Alive || !me.HasCharacter() || st.Vote(me.UserID) != nil {
			return decision{}, false
		}
		targets := voteTargets(st, me)
		if len(targets) == 0 {
			return decision{}, false
		}
		return decision{intent: IntentVote, targetID: targets[pick(len(targets))]}, true
	}
	return decision{}, false
}

// decideReactive answers a human. Private messages addressed to the agent are
// always answered; public chat only when roll falls under the profile's probability.
func decideReactive(st *domain.GameState, trig domain.AgentTrigger, profile *domain.AgentProfile, roll float64) (decision, bool) {
	if !chatPhase(st.Room.Phase) {
		return decision{}, false
	}
	switch trig.Kind {
	case domain.TriggerPrivate:
		return decision{intent: IntentReply, recipient: trig.SenderID, speaks: true}, true
	case domain.TriggerChat:
		if profile == nil || roll >= profile.RespondProbability {
			return decision{}, false
		}
		return decision{intent: IntentRemark, speaks: true}, true
	}
	return decision{}, false
}

func (d decision) command(line string) *protocol.Command {
	switch d.intent {
	case IntentRemark:
		return &protocol.Command{Type: protocol.CmdChat, Payload: &protocol.ChatPayload{Message: line}}
	case IntentReply:
		return &protocol.Command{Type: protocol.CmdPrivateMessage, Payload: &protocol.PrivateMessagePayload{RecipientID: d.recipient, Message: line}}
	case IntentSearch:
		return &protocol.Command{Type: protocol.CmdSearchClue, Payload: &protocol.SearchCluePayload{ClueID: d.clueID}}
	case IntentVote:
		return &protocol.Command{Type: protocol.CmdGameVote, Payload: &protocol.GameVotePayload{TargetUserID: d.targetID}}
	}
	return nil
}

// searchable lists clues the agent could successfully search right now.
func searchable(st *domain.GameState, me *domain.Participant) []uuid.UUID {
	if st.Script == nil || !me.HasCharacter() {
		return nil
	}
	goal := st.Script.Goal(*me.CharacterID, st.Room.CurrentStage)
	if goal == nil || goal.SearchAttempts <= 0 {
		return nil
	}

	var out []uuid.UUID
	for _, c := range st.Script.Clues {
		if c.CharacterID == nil || c.OwnedBy(*me.CharacterID) {
			continue
		}
		if c.Stage > st.Room.CurrentStage {
			continue
		}
		if st.Holder(*c.CharacterID) == nil || st.Searched(me.UserID, c.ID) {
			continue
		}
		out = append(out, c.ID)
	}
	return out
}

func voteTargets(st *domain.GameState, me *domain.Participant) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(st.Participants))
	for _, p := range st.Participants {
		if p.UserID != me.UserID {
			out = append(out, p.UserID)
		}
	}
	return out
}

func chatPhase(p domain.Phase) bool {
	return p != domain.PhaseDissolved && p != domain.PhaseGeneratingContent
}

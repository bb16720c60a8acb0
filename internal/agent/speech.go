package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/immxrtalbeast/mystery_room/internal/content"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

const maxLineRunes = 1000

// Cue is what an agent is reacting to.
type Cue struct {
	Profile   *domain.AgentProfile
	Character *domain.Character
	Phase     domain.Phase
	Stage     *domain.Stage
	Heard     string
	Private   bool
}

// Speaker produces one line of in-character speech.
type Speaker interface {
	Speak(ctx context.Context, cue Cue) (string, error)
}

var cannedRemarks = []string{
	"Where was everyone when the lights went out?",
	"I think someone here is not telling the whole story.",
	"Let's go through the timeline once more.",
	"That alibi sounds a little too convenient.",
	"I saw something earlier that doesn't add up.",
}

var cannedReplies = []string{
	"I hear you. Give me a moment to think about it.",
	"Interesting. Why do you bring that up now?",
	"I'd rather keep that between us for now.",
	"You may be onto something.",
}

// CannedSpeaker rotates through fixed lines.
type CannedSpeaker struct {
	Pick func(n int) int
}

func (s CannedSpeaker) Speak(_ context.Context, cue Cue) (string, error) {
	lines := cannedRemarks
	if cue.Heard != "" {
		lines = cannedReplies
	}
	i := 0
	if s.Pick != nil {
		i = s.Pick(len(lines))
	}
	return lines[i%len(lines)], nil
}

// LLMSpeaker asks a completer for the line and falls back on failure.
type LLMSpeaker struct {
	completer content.Completer
	fallback  Speaker
}

func NewLLMSpeaker(completer content.Completer, fallback Speaker) *LLMSpeaker {
	return &LLMSpeaker{completer: completer, fallback: fallback}
}

func (s *LLMSpeaker) Speak(ctx context.Context, cue Cue) (string, error) {
	line, err := s.completer.Complete(ctx, []content.Message{
		{Role: "system", Content: personaPrompt(cue)},
		{Role: "user", Content: situation(cue)},
	})
	line = strings.TrimSpace(line)
	if err != nil || line == "" {
		return s.fallback.Speak(ctx, cue)
	}
	return clip(line), nil
}

func personaPrompt(cue Cue) string {
	var b strings.Builder
	b.WriteString("You are a player in a murder mystery game. Stay in character and answer in one or two sentences.\n")
	if cue.Profile != nil && cue.Profile.Persona != "" {
		fmt.Fprintf(&b, "Persona: %s\n", cue.Profile.Persona)
	}
	if cue.Character != nil {
		fmt.Fprintf(&b, "Your character: %s. %s\n", cue.Character.Name, cue.Character.PublicInfo)
		fmt.Fprintf(&b, "Your secret: %s\n", cue.Character.Backstory)
		if cue.Character.IsCulprit {
			b.WriteString("You are the murderer. Never admit it.\n")
		}
	}
	return b.String()
}

func situation(cue Cue) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current phase: %s.\n", cue.Phase)
	if cue.Stage != nil {
		fmt.Fprintf(&b, "Act %d, %s: %s\n", cue.Stage.Number, cue.Stage.Name, cue.Stage.Goal)
	}
	switch {
	case cue.Heard != "" && cue.Private:
		fmt.Fprintf(&b, "Another player whispers to you: %q. Reply to them.", cue.Heard)
	case cue.Heard != "":
		fmt.Fprintf(&b, "Someone says to the table: %q. Respond.", cue.Heard)
	default:
		b.WriteString("Say something to move the investigation forward.")
	}
	return b.String()
}

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxLineRunes {
		return s
	}
	return string([]rune(s)[:maxLineRunes])
}

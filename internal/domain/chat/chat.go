// Package chat holds the follow-up conversation that is saved after the
// assessment.
package chat

import (
	"strings"
	"time"
)

// Role identifies who wrote a message.
type Role string

// Roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultSummary is attached to a saved transcript when none is given.
const DefaultSummary = "Кандидат обсуждал варианты развития"

// acknowledgement is the canned assistant reply to every user message.
const acknowledgement = "Фиксирую. Я могу сохранить это в заметки профиля или предложить следующее упражнение."

// Message is one transcript line. Time is "HH:MM".
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Time    string `json:"time"`
}

// Starter returns the greeting the conversation opens with.
func Starter() []Message {
	return []Message{
		{Role: RoleAssistant, Content: "Привет! Я запомнил твой выбор в тесте: IT / Data и высокий интерес к креативности.", Time: "09:41"},
		{Role: RoleAssistant, Content: "Готов подсказать следующие шаги или предложить альтернативы. С чего начнём?", Time: "09:42"},
	}
}

// Append adds the user's input and the assistant acknowledgement to a copy
// of history. Blank input leaves history unchanged.
func Append(history []Message, input string, now time.Time) []Message {
	input = strings.TrimSpace(input)
	out := make([]Message, len(history), len(history)+2)
	copy(out, history)
	if input == "" {
		return out
	}
	stamp := now.Format("15:04")
	return append(out,
		Message{Role: RoleUser, Content: input, Time: stamp},
		Message{Role: RoleAssistant, Content: acknowledgement, Time: stamp},
	)
}

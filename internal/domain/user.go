package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can join rooms. Agents own a user row too.
type User struct {
	ID        uuid.UUID `json:"id"`
	Nickname  string    `json:"nickname"`
	IsGuest   bool      `json:"is_guest"`
	IsAgent   bool      `json:"is_agent"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGuestUser(nickname string) *User {
	u := NewUser(nickname)
	u.IsGuest = true
	return u
}

func NewUser(nickname string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Nickname:  nickname,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewAgentUser(profile *AgentProfile) *User {
	u := NewUser(profile.Name)
	u.IsAgent = true
	return u
}

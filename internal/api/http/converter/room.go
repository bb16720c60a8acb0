package converter

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

type RoomResponse struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	HostID       uuid.UUID       `json:"host_id"`
	Phase        domain.Phase    `json:"phase"`
	Capacity     int             `json:"capacity"`
	HasPassword  bool            `json:"has_password"`
	CurrentStage int             `json:"current_stage"`
	Settings     domain.Settings `json:"settings"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AgentProfileResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Persona            string    `json:"persona"`
	RespondProbability float64   `json:"respond_probability"`
	ResponseIntervalS  int       `json:"response_interval_seconds"`
}

func RoomToApi(r *domain.Room) *RoomResponse {
	return &RoomResponse{
		ID:           r.ID,
		Code:         r.Code,
		Name:         r.Name,
		HostID:       r.HostID,
		Phase:        r.Phase,
		Capacity:     r.Capacity,
		HasPassword:  r.Password != "",
		CurrentStage: r.CurrentStage,
		Settings:     r.Settings,
		CreatedAt:    r.CreatedAt,
	}
}

func RoomsToApi(rooms []*domain.Room) []*RoomResponse {
	out := make([]*RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomToApi(r))
	}
	return out
}

func ProfileToApi(p *domain.AgentProfile) *AgentProfileResponse {
	return &AgentProfileResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Persona:            p.Persona,
		RespondProbability: p.RespondProbability,
		ResponseIntervalS:  int(p.ResponseInterval / time.Second),
	}
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/mystery_room/internal/api/http/converter"
	"github.com/immxrtalbeast/mystery_room/internal/service"
)

type AgentController struct {
	rooms service.RoomInteractor
}

func NewAgentController(rooms service.RoomInteractor) *AgentController {
	return &AgentController{rooms: rooms}
}

func (c *AgentController) CreateProfile(ctx *gin.Context) {
	type request struct {
		Name               string  `json:"name" binding:"required,max=64"`
		Persona            string  `json:"persona" binding:"max=2000"`
		RespondProbability float64 `json:"respond_probability" binding:"min=0,max=1"`
		ResponseIntervalS  int     `json:"response_interval_seconds" binding:"min=0"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	profile, err := c.rooms.CreateAgentProfile(ctx.Request.Context(), service.AgentProfileInput{
		Name:               req.Name,
		Persona:            req.Persona,
		RespondProbability: req.RespondProbability,
		ResponseInterval:   time.Duration(req.ResponseIntervalS) * time.Second,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"profile": converter.ProfileToApi(profile)})
}

func (c *AgentController) ListProfiles(ctx *gin.Context) {
	profiles, err := c.rooms.ListAgentProfiles(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}
	out := make([]*converter.AgentProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, converter.ProfileToApi(p))
	}
	ctx.JSON(http.StatusOK, gin.H{"profiles": out})
}

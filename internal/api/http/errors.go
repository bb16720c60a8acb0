package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

var notFound = []error{
	domain.ErrRoomNotFound,
	domain.ErrUserNotFound,
	domain.ErrAgentProfileNotFound,
}

func statusFor(err error) int {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	if errors.Is(err, domain.ErrInvalidToken) {
		return http.StatusUnauthorized
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindPrecondition:
		return http.StatusConflict
	case domain.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with its status; internal details never leave the server.
func writeError(ctx *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = ctx.Error(err)
		msg = "internal error"
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": domain.KindOf(err)})
}

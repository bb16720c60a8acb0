package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/auth"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

const identityKey = "identity"

type TokenParser interface {
	Parse(raw string) (auth.Identity, error)
}

// RequireUser rejects requests without a valid bearer token.
func RequireUser(tokens TokenParser) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !ok {
			writeError(ctx, domain.ErrInvalidToken)
			return
		}
		id, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			writeError(ctx, err)
			return
		}
		ctx.Set(identityKey, id)
		ctx.Next()
	}
}

func currentUser(ctx *gin.Context) uuid.UUID {
	id, _ := ctx.Get(identityKey)
	identity, _ := id.(auth.Identity)
	return identity.UserID
}

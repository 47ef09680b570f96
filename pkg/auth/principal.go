package auth

import (
	"strings"

	"github.com/example/gemora/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID primitive.ObjectID `json:"id"`
	Role   models.Role        `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func (p Principal) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Package service holds the business rules. Callers pass the request
// principal explicitly; nothing here reads transport state.
package service

import (
	"errors"
	"time"

	"github.com/example/gemora/pkg/apperr"
	"github.com/example/gemora/pkg/auth"
	"github.com/example/gemora/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clock func() time.Time

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidInput("Invalid " + what + " id")
	}
	return id, nil
}

func requireAdmin(p auth.Principal) error {
	if !p.IsAdmin() {
		return apperr.Forbidden("Admin access required")
	}
	return nil
}

// storeErr maps a store failure to NotFound or Dependency.
func storeErr(err error, notFound, failed string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Dependency(failed, err)
}

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"payables_service/internal/models"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const actorKey ctxKey = "actor"

type ActorRepo interface {
	FindActorByToken(ctx context.Context, plainToken string) (*models.Actor, error)
}

// Middleware resolves the bearer token to an Actor and stores it in the
// request context. The actor carries the authority level consumed by the
// approval-threshold policy.
func Middleware(repo ActorRepo, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight passes through unauthenticated
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			actor, err := repo.FindActorByToken(r.Context(), token)
			if err != nil {
				log.WithError(err).Warn("[AUTH] token lookup failed")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, *actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetActor(ctx context.Context) (models.Actor, error) {
	actor, ok := ctx.Value(actorKey).(models.Actor)
	if !ok || actor.ID == "" {
		return models.Actor{}, errors.New("actor not found in context")
	}
	return actor, nil
}

// WithActor seeds the actor directly, for internal callers and tests.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

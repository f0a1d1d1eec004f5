package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"payables_service/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActorRepo struct {
	tokens map[string]models.Actor
}

func (f *fakeActorRepo) FindActorByToken(_ context.Context, plainToken string) (*models.Actor, error) {
	actor, ok := f.tokens[plainToken]
	if !ok {
		return nil, errors.New("token not found")
	}
	return &actor, nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestMiddleware_setsActor(t *testing.T) {
	repo := &fakeActorRepo{tokens: map[string]models.Actor{
		"tok-abc": {ID: "u-1", Name: "Ana", AuthorityLevel: models.AuthorityManager},
	}}

	var got models.Actor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := GetActor(r.Context())
		require.NoError(t, err)
		got = actor
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
	req.Header.Set("Authorization", "Bearer tok-abc")
	rec := httptest.NewRecorder()

	Middleware(repo, quietLog())(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, models.AuthorityManager, got.AuthorityLevel)
}

func TestMiddleware_rejectsMissingOrBadToken(t *testing.T) {
	repo := &fakeActorRepo{tokens: map[string]models.Actor{}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})
	handler := Middleware(repo, quietLog())(next)

	for _, header := range []string{"", "Basic dXNlcg==", "Bearer ", "Bearer unknown"} {
		req := httptest.NewRequest(http.MethodGet, "/schedules", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestMiddleware_optionsPassthrough(t *testing.T) {
	repo := &fakeActorRepo{tokens: map[string]models.Actor{}}
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/schedules", nil)
	rec := httptest.NewRecorder()

	Middleware(repo, quietLog())(next).ServeHTTP(rec, req)

	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetActor_missing(t *testing.T) {
	_, err := GetActor(context.Background())
	assert.Error(t, err)

	ctx := WithActor(context.Background(), models.Actor{ID: "u-2", AuthorityLevel: models.AuthorityClerk})
	actor, err := GetActor(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-2", actor.ID)
}

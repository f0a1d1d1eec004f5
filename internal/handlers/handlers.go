package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"payables_service/internal/apierror"
	mg "payables_service/internal/config/connections/mongo"
	"payables_service/internal/config/connections/postgres"
	"payables_service/internal/config/connections/s3"
	"payables_service/internal/ports"
	"payables_service/internal/services/export"
	"payables_service/internal/services/lifecycle"

	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Postgres *postgres.Postgres
	Mongo    *mg.Mongo
	S3       *s3.S3

	Obligations ports.ObligationStore
	Lifecycle   *lifecycle.Service
	Exporter    *export.Service

	Logger *logrus.Logger
}

func New(pg *postgres.Postgres, m *mg.Mongo, s3c *s3.S3, obligations ports.ObligationStore, lc *lifecycle.Service, exp *export.Service, log *logrus.Logger) *Handlers {
	if log == nil {
		log = logrus.New()
	}
	return &Handlers{
		Postgres:    pg,
		Mongo:       m,
		S3:          s3c,
		Obligations: obligations,
		Lifecycle:   lc,
		Exporter:    exp,
		Logger:      log,
	}
}

func (h *Handlers) JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a typed domain error with its mapped status; anything untyped
// is logged and reported as a 500 without leaking internals.
func (h *Handlers) Error(w http.ResponseWriter, err error) {
	var appErr apierror.AppError
	if errors.As(err, &appErr) {
		h.JSON(w, apierror.HTTPStatus(appErr), map[string]any{"error": appErr})
		return
	}
	h.Logger.WithError(err).Error("[HTTP] unhandled error")
	h.JSON(w, http.StatusInternalServerError, map[string]any{
		"error": apierror.New(apierror.ErrInternal, "internal error"),
	})
}

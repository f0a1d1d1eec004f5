package handlers

import (
	"fmt"
	"net/http"
	"time"

	"payables_service/internal/apierror"
	"payables_service/internal/models"
	"payables_service/internal/repository/audit"
	"payables_service/internal/transport/auth"
	"payables_service/internal/utils"
)

// AgingReport returns the receivables aging buckets as of the (optional)
// as_of query date, default today.
func (h *Handlers) AgingReport(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if t := utils.ParseDate(r.URL.Query().Get("as_of")); t != nil {
		asOf = *t
	}
	report, err := h.Exporter.BuildAgingReport(r.Context(), asOf)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, report)
}

// CreditRiskReport assesses every client credit account.
func (h *Handlers) CreditRiskReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Exporter.BuildCreditRiskReport(r.Context())
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// ExportCreditRisk renders the credit-risk workbook, stores it in S3 and
// returns the export record reference.
func (h *Handlers) ExportCreditRisk(w http.ResponseWriter, r *http.Request) {
	var actorPtr *models.Actor
	if actor, err := auth.GetActor(r.Context()); err == nil {
		actorPtr = &actor
	}

	rec, err := h.Exporter.ExportCreditRisk(r.Context(), actorPtr)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, map[string]any{
		"id":   rec.ID,
		"path": fmt.Sprintf("s3://%s/%s", rec.Bucket, rec.Key),
		"rows": rec.RowCount,
	})
}

// ListExports returns the most recent export runs, newest first.
func (h *Handlers) ListExports(w http.ResponseWriter, r *http.Request) {
	recs, err := audit.ListExportRecords(r.Context(), h.Mongo, 50)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"data": recs})
}

func (h *Handlers) GetExport(w http.ResponseWriter, r *http.Request) {
	rec, err := audit.FindExportRecordByID(r.Context(), h.Mongo, r.PathValue("id"))
	if err != nil {
		h.Error(w, apierror.Newf(apierror.ErrNotFound, "export %s not found", r.PathValue("id")))
		return
	}
	h.JSON(w, http.StatusOK, rec)
}

// ExportAging renders the aging workbook, stores it in S3 and returns the
// export record reference.
func (h *Handlers) ExportAging(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if t := utils.ParseDate(r.URL.Query().Get("as_of")); t != nil {
		asOf = *t
	}

	var actorPtr *models.Actor
	if actor, err := auth.GetActor(r.Context()); err == nil {
		actorPtr = &actor
	}

	rec, err := h.Exporter.ExportAging(r.Context(), asOf, actorPtr)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, map[string]any{
		"id":   rec.ID,
		"path": fmt.Sprintf("s3://%s/%s", rec.Bucket, rec.Key),
		"rows": rec.RowCount,
	})
}

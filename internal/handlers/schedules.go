package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"payables_service/internal/apierror"
	"payables_service/internal/models"
	"payables_service/internal/services/lifecycle"
	"payables_service/internal/transport/auth"
	"payables_service/internal/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

type createScheduleRequest struct {
	ScheduledDate    string `json:"scheduled_date"`
	Amount           string `json:"amount"`
	Method           string `json:"method"`
	BankAccount      string `json:"bank_account"`
	CheckNumber      string `json:"check_number"`
	Reference        string `json:"reference"`
	Notes            string `json:"notes"`
	RequiresApproval *bool  `json:"requires_approval"`
	Installments     int    `json:"installments"`
}

// Validate covers request shape only; the lifecycle service re-validates the
// domain rules (date in the past, conditional fields, obligation state).
func (r createScheduleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ScheduledDate, validation.Required),
		validation.Field(&r.Amount, validation.Required),
		validation.Field(&r.Method, validation.Required),
		validation.Field(&r.Installments, validation.Min(0), validation.Max(36)),
	)
}

func (h *Handlers) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		h.Error(w, apierror.New(apierror.ErrForbidden, "no acting user"))
		return
	}

	var req createScheduleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.Error(w, apierror.Newf(apierror.ErrValidation, "bad JSON: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		h.Error(w, apierror.WithDetails(apierror.ErrValidation, "invalid schedule request", err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.Error(w, apierror.Newf(apierror.ErrInvalidAmount, "unparseable amount %q", req.Amount))
		return
	}
	date := utils.ParseDate(req.ScheduledDate)
	if date == nil {
		h.Error(w, apierror.Newf(apierror.ErrInvalidDate, "unparseable scheduled_date %q", req.ScheduledDate))
		return
	}

	sched, err := h.Lifecycle.CreateSchedule(r.Context(), r.PathValue("id"), lifecycle.CreateScheduleRequest{
		ScheduledDate:    *date,
		Amount:           amount,
		Method:           models.PaymentMethod(req.Method),
		BankAccount:      req.BankAccount,
		CheckNumber:      req.CheckNumber,
		Reference:        req.Reference,
		Notes:            req.Notes,
		RequiresApproval: req.RequiresApproval,
		Installments:     req.Installments,
	}, actor)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, sched)
}

func (h *Handlers) ListSchedules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.ScheduleFilter{
		ObligationID: q.Get("obligation_id"),
		Status:       models.ScheduleStatus(q.Get("status")),
		Counterparty: q.Get("counterparty"),
		DateFrom:     utils.ParseDate(q.Get("date_from")),
		DateTo:       utils.ParseDate(q.Get("date_to")),
	}
	res, err := h.Lifecycle.ListSchedules(r.Context(), f)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, res)
}

type decisionRequest struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// decodeDecision tolerates an empty body (both fields are optional on
// approve) but rejects malformed JSON outright.
func decodeDecision(w http.ResponseWriter, r *http.Request, req *decisionRequest) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(req)
	if err != nil && !errors.Is(err, io.EOF) {
		return apierror.Newf(apierror.ErrValidation, "bad JSON: %v", err)
	}
	return nil
}

func (h *Handlers) ApproveSchedule(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		h.Error(w, apierror.New(apierror.ErrForbidden, "no acting user"))
		return
	}
	var req decisionRequest
	if err := decodeDecision(w, r, &req); err != nil {
		h.Error(w, err)
		return
	}

	sched, err := h.Lifecycle.ApprovePayment(r.Context(), r.PathValue("id"), actor, req.Notes)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, sched)
}

func (h *Handlers) RejectSchedule(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		h.Error(w, apierror.New(apierror.ErrForbidden, "no acting user"))
		return
	}
	var req decisionRequest
	if err := decodeDecision(w, r, &req); err != nil {
		h.Error(w, err)
		return
	}

	sched, err := h.Lifecycle.RejectPayment(r.Context(), r.PathValue("id"), actor, req.Reason, req.Notes)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, sched)
}

func (h *Handlers) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		h.Error(w, apierror.New(apierror.ErrForbidden, "no acting user"))
		return
	}
	sched, err := h.Lifecycle.Cancel(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, sched)
}

func (h *Handlers) ExecuteSchedule(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		h.Error(w, apierror.New(apierror.ErrForbidden, "no acting user"))
		return
	}
	sched, err := h.Lifecycle.Execute(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, sched)
}

func (h *Handlers) ListDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.Lifecycle.Decisions(r.Context(), r.PathValue("id"))
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"data": decisions})
}

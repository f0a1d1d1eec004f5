package handlers

import (
	"encoding/json"
	"net/http"

	"payables_service/internal/apierror"
	"payables_service/internal/models"
	"payables_service/internal/transport/auth"
	"payables_service/internal/utils"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createObligationRequest struct {
	Type         string `json:"type"`
	Counterparty string `json:"counterparty"`
	Reference    string `json:"reference"`
	Amount       string `json:"amount"`
	DueDate      string `json:"due_date"`
}

func (r createObligationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(
			string(models.ObligationPayable), string(models.ObligationReceivable))),
		validation.Field(&r.Counterparty, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Reference, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Amount, validation.Required),
		validation.Field(&r.DueDate, validation.Required),
	)
}

func (h *Handlers) CreateObligation(w http.ResponseWriter, r *http.Request) {
	var req createObligationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.Error(w, apierror.Newf(apierror.ErrValidation, "bad JSON: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		h.Error(w, apierror.WithDetails(apierror.ErrValidation, "invalid obligation", err))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		h.Error(w, apierror.New(apierror.ErrInvalidAmount, "amount must be a positive number"))
		return
	}
	dueDate := utils.ParseDate(req.DueDate)
	if dueDate == nil {
		h.Error(w, apierror.Newf(apierror.ErrInvalidDate, "unparseable due_date %q", req.DueDate))
		return
	}

	obl := &models.Obligation{
		ID:             uuid.NewString(),
		Type:           models.ObligationType(req.Type),
		Counterparty:   req.Counterparty,
		Reference:      req.Reference,
		Amount:         amount,
		Balance:        amount,
		DueDate:        *dueDate,
		ApprovalStatus: models.ApprovalPending,
	}
	// Receivables have no approval gate of their own.
	if obl.Type == models.ObligationReceivable {
		obl.ApprovalStatus = models.ApprovalApproved
	}

	if err := h.Obligations.Create(r.Context(), obl); err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusCreated, obl)
}

func (h *Handlers) ListObligations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.ObligationFilter{
		Type:           models.ObligationType(q.Get("type")),
		ApprovalStatus: models.ApprovalStatus(q.Get("approval_status")),
		Counterparty:   q.Get("counterparty"),
	}
	out, err := h.Obligations.List(r.Context(), f)
	if err != nil {
		h.Error(w, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// ApproveObligation flips a pending payable to approved, making it eligible
// for scheduling. Manager authority or better required.
func (h *Handlers) ApproveObligation(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.GetActor(r.Context())
	if err != nil {
		h.Error(w, apierror.New(apierror.ErrForbidden, "no acting user"))
		return
	}
	if actor.AuthorityLevel < models.AuthorityManager {
		h.Error(w, apierror.New(apierror.ErrForbidden, "manager authority required"))
		return
	}

	id := r.PathValue("id")
	obl, err := h.Obligations.Get(r.Context(), id)
	if err != nil {
		h.Error(w, err)
		return
	}
	if obl.ApprovalStatus != models.ApprovalPending {
		h.Error(w, apierror.Newf(apierror.ErrInvalidTransition,
			"obligation %s is already %s", id, obl.ApprovalStatus))
		return
	}

	if err := h.Obligations.SetApprovalStatus(r.Context(), id, models.ApprovalApproved); err != nil {
		h.Error(w, err)
		return
	}
	obl.ApprovalStatus = models.ApprovalApproved
	h.JSON(w, http.StatusOK, obl)
}

// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Rohan-Singla/solfund-backend/internal/apperr"
	"github.com/Rohan-Singla/solfund-backend/internal/service"
)

type CampaignController struct {
	Coordinator *service.Coordinator
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Creator          string `json:"creator"`
		Title            string `json:"title"`
		ShortDescription string `json:"short_description"`
		LongDescription  string `json:"long_description"`
		Category         string `json:"category"`
		CreatorName      string `json:"creator_name"`
		CreatorBio       string `json:"creator_bio"`
		Receiver         string `json:"receiver"`
		Goal             string `json:"goal"` // SOL, decimal string
		Deadline         int64  `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.NewValidation("body", "invalid json"))
		return
	}

	goal, err := decimal.NewFromString(body.Goal)
	if err != nil {
		writeError(w, apperr.NewValidation("goal", "not a decimal number"))
		return
	}

	campaign, err := c.Coordinator.CreateCampaign(r.Context(), service.CreateCampaignInput{
		Creator:          body.Creator,
		Title:            body.Title,
		ShortDescription: body.ShortDescription,
		LongDescription:  body.LongDescription,
		Category:         body.Category,
		CreatorName:      body.CreatorName,
		CreatorBio:       body.CreatorBio,
		Receiver:         body.Receiver,
		Goal:             goal,
		Deadline:         body.Deadline,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	category := r.URL.Query().Get("category")

	campaigns, pagination, err := c.Coordinator.ListCampaigns(r.Context(), page, pageSize, category)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	details, err := c.Coordinator.GetCampaignDetails(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(details)
}

func (c *CampaignController) Contribute(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var body struct {
		Contributor string `json:"contributor"`
		Amount      string `json:"amount"` // SOL, decimal string
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.NewValidation("body", "invalid json"))
		return
	}
	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, apperr.NewValidation("amount", "not a decimal number"))
		return
	}

	result, err := c.Coordinator.Contribute(r.Context(), id, body.Contributor, amount)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(result)
}

func (c *CampaignController) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var body struct {
		Contributor string `json:"contributor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.NewValidation("body", "invalid json"))
		return
	}

	result, err := c.Coordinator.Refund(r.Context(), id, body.Contributor)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(result)
}

func (c *CampaignController) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(w, r)
	if !ok {
		return
	}

	var body struct {
		Caller string `json:"caller"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.NewValidation("body", "invalid json"))
		return
	}

	result, err := c.Coordinator.Withdraw(r.Context(), id, body.Caller)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(result)
}

func campaignID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperr.NewValidation("id", "not a valid campaign id"))
		return uuid.UUID{}, false
	}
	return id, true
}

// writeError maps the coordinator's typed errors to HTTP statuses. The
// presentation layer decides how to surface them; this is a JSON transport,
// so each kind gets a machine-readable code.
func writeError(w http.ResponseWriter, err error) {
	var (
		validation   *apperr.ValidationError
		identity     *apperr.InvalidIdentityError
		invalidState *apperr.InvalidStateError
		unauthorized *apperr.AuthorizationError
		rejection    *apperr.LedgerRejection
		consistency  *apperr.ConsistencyError
		notFound     *apperr.NotFoundError
	)

	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.As(err, &validation), errors.As(err, &identity):
		status, code = http.StatusBadRequest, "validation"
	case errors.As(err, &invalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.As(err, &unauthorized):
		status, code = http.StatusForbidden, "unauthorized"
	case errors.As(err, &rejection):
		status, code = http.StatusUnprocessableEntity, string(rejection.Code)
	case errors.As(err, &consistency):
		// Funds moved on the ledger; only the mirror write failed. Callers
		// must be able to tell this apart from a rejection.
		status, code = http.StatusBadGateway, "consistency"
	case errors.As(err, &notFound):
		status, code = http.StatusNotFound, "not_found"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":  code,
		"error": err.Error(),
	})
}

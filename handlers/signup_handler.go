package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/tournament-signup/middleware"
	"github.com/Dosada05/tournament-signup/services"
)

type SignupHandler struct {
	signupService services.SignupService
}

func NewSignupHandler(ss services.SignupService) *SignupHandler {
	return &SignupHandler{signupService: ss}
}

// ListHandler обрабатывает GET /api/tournaments/{tournamentID}/signups
func (h *SignupHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		notFoundResponse(w, r, errors.New("tournament not found"))
		return
	}

	signups, err := h.signupService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, signups, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CreateHandler обрабатывает POST /api/tournaments/{tournamentID}/signups.
// Запись публичная: аутентификация не требуется, но если вызывающий вошёл,
// запись привязывается к его аккаунту.
func (h *SignupHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		notFoundResponse(w, r, errors.New("tournament not found"))
		return
	}

	var input services.SignupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	caller := middleware.IdentityFromContext(r.Context())
	signup, err := h.signupService.Admit(r.Context(), tournamentID, input, caller)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, signup, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetPaidHandler обрабатывает PATCH /api/signups/{signupID}
func (h *SignupHandler) SetPaidHandler(w http.ResponseWriter, r *http.Request) {
	signupID, err := getIDFromURL(r, "signupID")
	if err != nil {
		notFoundResponse(w, r, errors.New("signup not found"))
		return
	}

	var input struct {
		Paid bool `json:"paid"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	caller := middleware.IdentityFromContext(r.Context())
	signup, err := h.signupService.SetPaid(r.Context(), signupID, input.Paid, caller)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, signup, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelHandler обрабатывает DELETE /api/signups/{signupID}
func (h *SignupHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	signupID, err := getIDFromURL(r, "signupID")
	if err != nil {
		notFoundResponse(w, r, errors.New("signup not found"))
		return
	}

	caller := middleware.IdentityFromContext(r.Context())
	if err := h.signupService.Cancel(r.Context(), signupID, caller); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

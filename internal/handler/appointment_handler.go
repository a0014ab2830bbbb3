package handler

import (
	"net/http"
	"strings"

	"nursehub-api/internal/model"
	"nursehub-api/internal/workflow"
)

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var in workflow.BookingInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.appts.Submit(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	var filter *model.Status
	if raw := r.URL.Query().Get("status"); raw != "" && !strings.EqualFold(raw, "all") {
		st, ok := model.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
		filter = &st
	}

	list, err := h.appts.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := h.appts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type statusUpdate struct {
	Status             string `json:"status"`
	CancellationReason string `json:"cancellationReason"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body statusUpdate
	if !decode(w, r, &body) {
		return
	}
	a, err := h.appts.Transition(r.Context(), r.PathValue("id"), model.Status(body.Status), body.CancellationReason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	if err := h.appts.Remove(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Appointment deleted"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.appts.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/attendance"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func (h *Handler) ProxyCheckIn(w http.ResponseWriter, r *http.Request) {
	supervisor := r.Context().Value(ActorCtxKey).(*domain.User)

	params, ok := h.readProxyParams(w, r)
	if !ok {
		return
	}

	rec, err := h.service.ProxyCheckIn(r.Context(), supervisor, params)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "代打卡上班成功", rec)
}

func (h *Handler) ProxyCheckOut(w http.ResponseWriter, r *http.Request) {
	supervisor := r.Context().Value(ActorCtxKey).(*domain.User)

	params, ok := h.readProxyParams(w, r)
	if !ok {
		return
	}

	result, err := h.service.ProxyCheckOut(r.Context(), supervisor, params)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	if result.AlreadyUpdated {
		h.successResponse(w, r, "班次早已关闭", result)
		return
	}
	h.successResponse(w, r, "代打卡下班成功", result)
}

func (h *Handler) readProxyParams(w http.ResponseWriter, r *http.Request) (attendance.ProxyParams, bool) {
	var req struct {
		DriverID     int64      `json:"driverID" validate:"required,gte=1"`
		Evidence     []byte     `json:"evidence" validate:"required"`
		EvidenceHint string     `json:"evidenceHint"`
		Timestamp    *time.Time `json:"timestamp"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return attendance.ProxyParams{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return attendance.ProxyParams{}, false
	}

	params := attendance.ProxyParams{
		TargetDriverID: req.DriverID,
		Evidence:       req.Evidence,
		EvidenceHint:   req.EvidenceHint,
	}
	if req.Timestamp != nil {
		params.Timestamp = *req.Timestamp
	}

	return params, true
}

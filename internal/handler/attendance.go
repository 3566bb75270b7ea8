package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/attendance"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlantID      int64      `json:"plantID" validate:"required,gte=1"`
		VehicleID    *int64     `json:"vehicleID"`
		AssignmentID *int64     `json:"assignmentID"`
		Evidence     []byte     `json:"evidence" validate:"required"`
		EvidenceHint string     `json:"evidenceHint"`
		Timestamp    *time.Time `json:"timestamp"`
		Notes        string     `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sub, err := h.subject(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	identity, err := h.service.ResolveIdentity(sub)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	params := attendance.CheckInParams{
		Identity:     identity,
		PlantID:      req.PlantID,
		VehicleID:    req.VehicleID,
		AssignmentID: req.AssignmentID,
		Evidence:     req.Evidence,
		EvidenceHint: req.EvidenceHint,
		Source:       domain.SourceMobile,
		Notes:        req.Notes,
	}
	if req.Timestamp != nil {
		params.Timestamp = *req.Timestamp
	}

	rec, err := h.service.CheckIn(r.Context(), params)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "上班打卡成功", rec)
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Evidence     []byte     `json:"evidence" validate:"required"`
		EvidenceHint string     `json:"evidenceHint"`
		Timestamp    *time.Time `json:"timestamp"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sub, err := h.subject(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	identity, err := h.service.ResolveIdentity(sub)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	params := attendance.CheckOutParams{
		Identity:     identity,
		Evidence:     req.Evidence,
		EvidenceHint: req.EvidenceHint,
	}
	if req.Timestamp != nil {
		params.Timestamp = *req.Timestamp
	}

	result, err := h.service.CheckOut(r.Context(), params)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	if result.AlreadyUpdated {
		h.successResponse(w, r, "班次早已关闭", result)
		return
	}
	h.successResponse(w, r, "下班打卡成功", result)
}

func (h *Handler) SubmitAdjustment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DriverID    *int64    `json:"driverID"`
		ProposedIn  time.Time `json:"proposedIn" validate:"required"`
		ProposedOut time.Time `json:"proposedOut" validate:"required"`
		Reason      string    `json:"reason" validate:"required"`
		PlantID     *int64    `json:"plantID"`
		VehicleID   *int64    `json:"vehicleID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	sub, err := h.subject(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	requestedBy, err := h.service.ResolveIdentity(sub)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	// 不指定司机时默认给自己补卡
	driverID := int64(0)
	if req.DriverID != nil {
		driverID = *req.DriverID
	} else if requestedBy.Kind == domain.IdentityDriver {
		driverID = requestedBy.ID
	} else {
		h.errorResponse(w, r, "缺少司机")
		return
	}

	result, err := h.service.SubmitAdjustment(r.Context(), attendance.AdjustmentParams{
		DriverID:    driverID,
		RequestedBy: requestedBy,
		ProposedIn:  req.ProposedIn,
		ProposedOut: req.ProposedOut,
		Reason:      req.Reason,
		PlantID:     req.PlantID,
		VehicleID:   req.VehicleID,
	})
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "补卡申请已提交", result)
}

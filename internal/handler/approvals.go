package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/attendance"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
)

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	actor := r.Context().Value(ActorCtxKey).(*domain.User)

	recordIDParam := chi.URLParam(r, "id")
	recordID, err := strconv.ParseInt(recordIDParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "记录ID无效")
		return
	}

	var req struct {
		Decision string `json:"decision" validate:"required,oneof=approved rejected"`
		Note     string `json:"note"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.service.Decide(r.Context(), actor, recordID, domain.ApprovalStatus(req.Decision), req.Note)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	// 审批已经落库，通知投递失败不影响结果，只记日志
	if !result.AlreadyUpdated {
		if err := h.publishDecisionNotification(actor, result); err != nil {
			slog.Warn("投递审批结果通知失败", "recordID", recordID, "error", err)
		}
	}

	h.successResponse(w, r, "审批成功", result)
}

// publishDecisionNotification 把审批结果投到消息队列，由 notify worker 发邮件。
// 没有员工账号的司机走推送渠道，推送投递在本系统范围之外。
func (h *Handler) publishDecisionNotification(actor *domain.User, result *attendance.DecideResult) error {
	rec := result.Record

	var subject *domain.User
	switch rec.Identity.Kind {
	case domain.IdentitySupervisor:
		user, err := h.repository.GetUserByID(rec.Identity.ID)
		if err != nil {
			return err
		}
		subject = user
	case domain.IdentityDriver:
		driver, err := h.repository.GetDriverByID(rec.Identity.ID)
		if err != nil {
			return err
		}
		if driver.UserID == nil {
			return nil
		}
		user, err := h.repository.GetUserByID(*driver.UserID)
		if err != nil {
			return err
		}
		subject = user
	default:
		return nil
	}

	plantName := ""
	plant, err := h.repository.GetPlantByID(rec.PlantID)
	switch {
	case err == nil:
		plantName = plant.Name
	case errors.Is(err, sql.ErrNoRows):
	default:
		return err
	}

	message := domain.NotificationMessage{
		Type: "attendance_decided",
		To:   subject.Email,
		Data: domain.DecisionMailData{
			FullName:  subject.FullName,
			PlantName: plantName,
			Date:      rec.InTime.Format("2006-01-02"),
			Decision:  string(rec.ApprovalStatus),
			Note:      rec.Notes,
			IsAdjust:  result.AdjustRequest != nil,
			DecidedBy: actor.FullName,
			RecordID:  rec.ID,
		},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.notifyChannel.PublishWithContext(
		ctx,
		"",
		"notify_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (h *Handler) ListApprovals(w http.ResponseWriter, r *http.Request) {
	actor := r.Context().Value(ActorCtxKey).(*domain.User)

	filter, err := h.readAttendanceFilter(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	records, err := h.service.ListApprovalsForActor(r.Context(), actor, filter)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取待审批记录成功", records)
}

func (h *Handler) ListGroupedAttendance(w http.ResponseWriter, r *http.Request) {
	filter, err := h.readAttendanceFilter(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	groups, err := h.service.ListGroupedAttendance(r.Context(), filter)
	if err != nil {
		h.engineError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取考勤看板成功", groups)
}

func (h *Handler) readAttendanceFilter(r *http.Request) (domain.AttendanceFilter, error) {
	filter := domain.AttendanceFilter{}
	query := r.URL.Query()

	if v := query.Get("plantID"); v != "" {
		plantID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, errors.New("厂区ID无效")
		}
		filter.PlantID = &plantID
	}

	if kind := query.Get("identityKind"); kind != "" {
		idParam := query.Get("identityID")
		identityID, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			return filter, errors.New("主体ID无效")
		}
		switch domain.IdentityKind(kind) {
		case domain.IdentityDriver, domain.IdentitySupervisor:
			identity := domain.Identity{Kind: domain.IdentityKind(kind), ID: identityID}
			filter.Identity = &identity
		default:
			return filter, errors.New("主体类别无效")
		}
	}

	if v := query.Get("status"); v != "" {
		status := domain.ApprovalStatus(v)
		switch status {
		case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
			filter.Status = &status
		default:
			return filter, errors.New("审批状态无效")
		}
	}

	if v := query.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("开始时间格式错误")
		}
		filter.From = &from
	}

	if v := query.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, errors.New("结束时间格式错误")
		}
		filter.To = &to
	}

	return filter, nil
}

package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/attendance"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/config"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/domain"
	"github.com/sysu-ecnc-dev/fleet-attendance/backend/internal/repository"
)

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	service       *attendance.Service
	translator    ut.Translator
	notifyChannel *amqp.Channel

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, svc *attendance.Service, notifyCh *amqp.Channel) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		service:       svc,
		translator:    trans,
		notifyChannel: notifyCh,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/attendance", func(r chi.Router) {
			// 打卡主体（司机或主管）自己发起的操作，只依赖令牌里的主体 id
			r.Post("/check-in", h.CheckIn)
			r.Post("/check-out", h.CheckOut)
			r.Post("/adjustments", h.SubmitAdjustment)

			// 以下操作要求操作者是员工账号
			r.Group(func(r chi.Router) {
				r.Use(h.actorInfo)
				r.Post("/records/{id}/decision", h.Decide)
				r.Get("/approvals", h.ListApprovals)
				r.Get("/grouped", h.ListGroupedAttendance)

				// 代打卡只开放给主管
				r.Group(func(r chi.Router) {
					r.Use(h.RequiredRole([]domain.Role{domain.RoleSupervisor}))
					r.Post("/proxy/check-in", h.ProxyCheckIn)
					r.Post("/proxy/check-out", h.ProxyCheckOut)
				})
			})
		})
	})
}

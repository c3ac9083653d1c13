package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/repository"
	"github.com/studbot/timetable_bot/internal/service"
)

// Server - HTTP админ-панель: рассылка оператора, журнал доставки
// и управление расписанием. Закрыта BasicAuth, кроме /healthz.
type Server struct {
	httpSrv         *http.Server
	notifService    *service.NotificationService
	scheduleService *service.ScheduleService
	directionRepo   *repository.DirectionRepository
	logRepo         *repository.DeliveryLogRepository
	logger          *zap.Logger
}

func NewServer(
	addr, username, password string,
	notifService *service.NotificationService,
	scheduleService *service.ScheduleService,
	directionRepo *repository.DirectionRepository,
	logRepo *repository.DeliveryLogRepository,
	logger *zap.Logger,
) *Server {
	s := &Server{
		notifService:    notifService,
		scheduleService: scheduleService,
		directionRepo:   directionRepo,
		logRepo:         logRepo,
		logger:          logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BasicAuth("timetable-admin", map[string]string{username: password}))

		r.Post("/broadcast", s.handleBroadcast)

		r.Get("/logs", s.handleListLogs)
		r.Get("/logs/stats", s.handleLogStats)

		r.Route("/pairs", func(r chi.Router) {
			r.Get("/", s.handleListPairs)
			r.Post("/", s.handleCreatePair)
			r.Get("/{id}", s.handleGetPair)
			r.Put("/{id}", s.handleUpdatePair)
			r.Delete("/{id}", s.handleDeletePair)
		})

		r.Route("/directions", func(r chi.Router) {
			r.Get("/", s.handleListDirections)
			r.Post("/", s.handleCreateDirection)
			r.Put("/{id}", s.handleUpdateDirection)
			r.Delete("/{id}", s.handleDeleteDirection)
		})

		r.Route("/slots", func(r chi.Router) {
			r.Get("/", s.handleListSlots)
			r.Get("/{number}", s.handleGetSlot)
			r.Put("/{number}", s.handleUpdateSlot)
		})
	})

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second, // рассылка может идти дольше обычного запроса
	}

	return s
}

// Start запускает HTTP сервер, блокирует до остановки
func (s *Server) Start() error {
	s.logger.Info("Starting admin server", zap.String("addr", s.httpSrv.Addr))

	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// errResponse - единый формат ошибки API
type errResponse struct {
	Error string `json:"error"`
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Warn("Admin request failed",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)

	render.Status(r, status)
	render.JSON(w, r, errResponse{Error: err.Error()})
}

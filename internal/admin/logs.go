package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/studbot/timetable_bot/internal/model"
	"github.com/studbot/timetable_bot/internal/repository"
)

const defaultLogLimit = 100

// handleListLogs отдаёт записи журнала доставки с фильтрами
// ?type=&status=&from=&to=&limit=
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLogFilter(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	records, err := s.logRepo.List(r.Context(), filter)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	if records == nil {
		records = []model.DeliveryRecord{}
	}

	render.JSON(w, r, records)
}

// handleLogStats отдаёт агрегаты sent/errors по типам сообщений
func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request) {
	filter, err := parseLogFilter(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	stats, err := s.logRepo.Stats(r.Context(), filter)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	if stats == nil {
		stats = []model.DeliveryStats{}
	}

	render.JSON(w, r, stats)
}

func parseLogFilter(r *http.Request) (repository.LogFilter, error) {
	filter := repository.LogFilter{Limit: defaultLogLimit}
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		mt := model.MessageType(v)
		switch mt {
		case model.MessageTypeMorning, model.MessageTypeReminder, model.MessageTypeBroadcast:
			filter.MessageType = &mt
		default:
			return filter, fmt.Errorf("unknown message type %q", v)
		}
	}

	if v := q.Get("status"); v != "" {
		st := model.DeliveryStatus(v)
		switch st {
		case model.DeliveryStatusSent, model.DeliveryStatusError:
			filter.Status = &st
		default:
			return filter, fmt.Errorf("unknown status %q", v)
		}
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid from: %w", err)
		}
		filter.From = &t
	}

	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, fmt.Errorf("invalid to: %w", err)
		}
		filter.To = &t
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return filter, fmt.Errorf("invalid limit %q", v)
		}
		filter.Limit = n
	}

	return filter, nil
}

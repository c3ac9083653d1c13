package admin

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

type broadcastRequest struct {
	Text        string `json:"text"`
	Course      *int   `json:"course,omitempty"`
	DirectionID *int64 `json:"direction_id,omitempty"`
}

type broadcastResponse struct {
	Sent   int `json:"sent"`
	Errors int `json:"errors"`
}

// handleBroadcast отправляет сообщение оператора выбранной аудитории.
// Ответ возвращается после завершения рассылки.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Text == "" {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("text is required"))
		return
	}
	if req.Course != nil && (*req.Course < 1 || *req.Course > 4) {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("course out of range: %d", *req.Course))
		return
	}

	summary, err := s.notifService.SendBroadcast(r.Context(), req.Text, req.Course, req.DirectionID)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.JSON(w, r, broadcastResponse{Sent: summary.Sent, Errors: summary.Errors})
}

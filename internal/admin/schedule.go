package admin

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/studbot/timetable_bot/internal/model"
)

type pairRequest struct {
	Title        string  `json:"title"`
	Teacher      string  `json:"teacher"`
	Room         string  `json:"room"`
	Type         string  `json:"type"`
	DayOfWeek    int     `json:"day_of_week"`
	TimeSlotID   int64   `json:"time_slot_id"`
	ExtraLink    *string `json:"extra_link,omitempty"`
	DirectionIDs []int64 `json:"direction_ids"`
}

func (req *pairRequest) validate() error {
	if req.Title == "" || req.Teacher == "" || req.Room == "" {
		return fmt.Errorf("title, teacher and room are required")
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week out of range: %d", req.DayOfWeek)
	}
	if req.TimeSlotID < 1 {
		return fmt.Errorf("time_slot_id is required")
	}
	return nil
}

func (req *pairRequest) toModel() *model.Pair {
	pairType := req.Type
	if pairType == "" {
		pairType = "Лекция"
	}

	return &model.Pair{
		Title:      req.Title,
		Teacher:    req.Teacher,
		Room:       req.Room,
		Type:       pairType,
		DayOfWeek:  req.DayOfWeek,
		TimeSlotID: req.TimeSlotID,
		ExtraLink:  req.ExtraLink,
	}
}

func (s *Server) handleListPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.scheduleService.AllPairs(r.Context())
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	if pairs == nil {
		pairs = []model.PairWithTime{}
	}

	render.JSON(w, r, pairs)
}

func (s *Server) handleCreatePair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := req.validate(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	pair := req.toModel()
	if err := s.scheduleService.CreatePair(r.Context(), pair, req.DirectionIDs); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, pair)
}

func (s *Server) handleGetPair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	pair, err := s.scheduleService.PairByID(r.Context(), id)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	if pair == nil {
		s.renderError(w, r, http.StatusNotFound, fmt.Errorf("pair %d not found", id))
		return
	}

	render.JSON(w, r, pair)
}

func (s *Server) handleUpdatePair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	var req pairRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := req.validate(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	pair := req.toModel()
	pair.ID = id

	if err := s.scheduleService.UpdatePair(r.Context(), pair, req.DirectionIDs); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.JSON(w, r, pair)
}

func (s *Server) handleDeletePair(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.scheduleService.DeletePair(r.Context(), id); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type directionRequest struct {
	Name   string `json:"name"`
	Course int    `json:"course"`
}

func (s *Server) handleListDirections(w http.ResponseWriter, r *http.Request) {
	directions, err := s.directionRepo.GetAll(r.Context())
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	if directions == nil {
		directions = []model.Direction{}
	}

	render.JSON(w, r, directions)
}

func (s *Server) handleCreateDirection(w http.ResponseWriter, r *http.Request) {
	var req directionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Name == "" || req.Course < 1 || req.Course > 4 {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("name and course (1-4) are required"))
		return
	}

	direction := &model.Direction{Name: req.Name, Course: req.Course}
	if err := s.directionRepo.Create(r.Context(), direction); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, direction)
}

func (s *Server) handleUpdateDirection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	var req directionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if req.Name == "" || req.Course < 1 || req.Course > 4 {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("name and course (1-4) are required"))
		return
	}

	direction := &model.Direction{ID: id, Name: req.Name, Course: req.Course}
	if err := s.directionRepo.Update(r.Context(), direction); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	render.JSON(w, r, direction)
}

func (s *Server) handleDeleteDirection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	if err := s.directionRepo.Delete(r.Context(), id); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type slotRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := s.scheduleService.Slots(r.Context())
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	if slots == nil {
		slots = []model.TimeSlot{}
	}

	render.JSON(w, r, slots)
}

func (s *Server) handleGetSlot(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid slot number"))
		return
	}

	slot, err := s.scheduleService.SlotByNumber(r.Context(), number)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	if slot == nil {
		s.renderError(w, r, http.StatusNotFound, fmt.Errorf("slot %d not found", number))
		return
	}

	render.JSON(w, r, slot)
}

// handleUpdateSlot меняет время слота; напоминания пересчитаются
// на следующем цикле планировщика
func (s *Server) handleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid slot number"))
		return
	}

	var req slotRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if err := s.scheduleService.UpdateSlotTimes(r.Context(), number, req.StartTime, req.EndTime); err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

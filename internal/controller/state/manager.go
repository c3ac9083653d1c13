package state

import (
	"sync"
)

// Manager хранит состояния диалогов пользователей в памяти.
// Состояние живёт только в рамках процесса - после рестарта диалог
// начинается заново.
type Manager struct {
	mu     sync.RWMutex
	states map[int64]*entry // telegramID -> entry
}

type entry struct {
	state UserState
	draft Draft
}

// NewManager создаёт новый менеджер состояний
func NewManager() *Manager {
	return &Manager{
		states: make(map[int64]*entry),
	}
}

// GetState получает текущее состояние пользователя
func (m *Manager) GetState(telegramID int64) UserState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.states[telegramID]; ok {
		return e.state
	}
	return StateNone
}

// SetState устанавливает состояние пользователя, сохраняя черновик
func (m *Manager) SetState(telegramID int64, state UserState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state == StateNone {
		delete(m.states, telegramID)
		return
	}

	if e, ok := m.states[telegramID]; ok {
		e.state = state
		return
	}
	m.states[telegramID] = &entry{state: state}
}

// GetDraft получает копию черновика пользователя
func (m *Manager) GetDraft(telegramID int64) Draft {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.states[telegramID]; ok {
		return e.draft
	}
	return Draft{}
}

// UpdateDraft меняет черновик пользователя
func (m *Manager) UpdateDraft(telegramID int64, fn func(*Draft)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.states[telegramID]
	if !ok {
		e = &entry{}
		m.states[telegramID] = e
	}
	fn(&e.draft)
}

// Clear очищает состояние и черновик пользователя
func (m *Manager) Clear(telegramID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, telegramID)
}

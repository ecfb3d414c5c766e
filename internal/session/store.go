// Пакет session — in-memory хранилище сессий диалогов.
// Одна сессия на пользователя; обработка событий одного пользователя
// сериализуется per-user мьютексом, разные пользователи обрабатываются
// параллельно. Кросс-пользовательского изменяемого состояния нет.
//
// Интерфейс Store выделен отдельно: при multi-process деплое за
// load-balancer'ом in-memory реализация неприменима и должна быть
// заменена внешним разделяемым хранилищем.
package session

import (
	"sync"

	"github.com/lineops/vols-bot/internal/domain/model"
)

// Store — хранилище сессий с per-user сериализацией обработки.
type Store interface {
	// WithLock выполняет fn под эксклюзивным локом пользователя.
	// События одного пользователя обрабатываются строго по одному.
	WithLock(userID int64, fn func())
	// Get возвращает сессию пользователя (nil — сессии нет).
	Get(userID int64) *model.SessionState
	// Start создаёт чистую сессию, перезаписывая предыдущую.
	Start(userID int64) *model.SessionState
	// Clear удаляет сессию пользователя.
	Clear(userID int64)
}

// memoryStore — реализация Store в памяти процесса.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*model.SessionState
	locks    map[int64]*sync.Mutex
}

// NewMemoryStore создаёт in-memory хранилище сессий.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]*model.SessionState),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// userLock возвращает (создавая при необходимости) мьютекс пользователя.
func (s *memoryStore) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// WithLock выполняет fn под локом пользователя.
func (s *memoryStore) WithLock(userID int64, fn func()) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	fn()
}

// Get возвращает сессию пользователя или nil.
func (s *memoryStore) Get(userID int64) *model.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

// Start создаёт чистую сессию. Все поля предыдущей сессии
// (выбранный филиал, кандидаты уточнения) при этом теряются.
func (s *memoryStore) Start(userID int64) *model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &model.SessionState{Step: model.StepInit}
	s.sessions[userID] = sess
	return sess
}

// Clear удаляет сессию пользователя.
func (s *memoryStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

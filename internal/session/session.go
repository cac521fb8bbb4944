// Package session implements the device's sign-in flow. There is one
// active session per process, held in memory only: the app always
// starts signed out, and nothing short of a fresh login restores a
// user. Credentials are matched against the registered-accounts list in
// the repository; there is no hashing and there are no tokens.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pillwise/pillwise/internal/config"
	apperrors "github.com/pillwise/pillwise/internal/errors"
	"github.com/pillwise/pillwise/internal/model"
	"github.com/pillwise/pillwise/internal/repo"
	"github.com/pillwise/pillwise/internal/store"
	"go.uber.org/zap"
)

type Manager struct {
	mu      sync.RWMutex
	repo    *repo.Repository
	store   *store.Store
	config  *config.Config
	logger  *zap.Logger
	now     func() time.Time
	current *model.User
}

// UserUpdate carries the account fields an update may change.
type UserUpdate struct {
	Email    *string
	Password *string
}

func NewManager(r *repo.Repository, st *store.Store, cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		repo:   r,
		store:  st,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Login signs a user in. Email and password are trimmed; the email is
// matched case-insensitively, the password exactly. A wrong email and a
// wrong password yield the same error.
func (m *Manager) Login(email, password string) (model.User, error) {
	cleanEmail := strings.TrimSpace(email)
	cleanPassword := strings.TrimSpace(password)

	u, ok := m.repo.FindUserByEmail(cleanEmail)
	if !ok || u.Password != cleanPassword {
		m.logger.Info("Login rejected", zap.String("email", cleanEmail))
		return model.User{}, apperrors.ErrInvalidCredentials
	}

	m.mu.Lock()
	m.current = &u
	m.mu.Unlock()

	m.logger.Info("User logged in",
		zap.String("user_id", u.ID),
		zap.String("type", u.Type),
	)
	return u, nil
}

// Signup registers an account, creates the linked patient or caretaker
// record, and signs the new user in.
func (m *Manager) Signup(email, password, name, userType string) (model.User, error) {
	if _, exists := m.repo.FindUserByEmail(email); exists {
		return model.User{}, apperrors.ErrEmailRegistered
	}
	if userType != model.UserTypePatient && userType != model.UserTypeCaretaker {
		return model.User{}, apperrors.ErrBadRequest
	}

	u := model.User{
		ID:       "u" + uuid.NewString(),
		Email:    email,
		Password: password,
		Type:     userType,
	}

	switch userType {
	case model.UserTypePatient:
		u.PatientID = "p" + uuid.NewString()
		m.repo.AddPatient("", model.Patient{ID: u.PatientID, Name: name, Email: email})
	case model.UserTypeCaretaker:
		u.CaretakerID = "c" + uuid.NewString()
		m.repo.AddCaretaker(u.CaretakerID, model.Caretaker{Name: name, Email: email})
	}

	m.repo.AddUser(u)

	m.mu.Lock()
	m.current = &u
	m.mu.Unlock()

	m.logger.Info("User signed up",
		zap.String("user_id", u.ID),
		zap.String("type", u.Type),
	)
	return u, nil
}

// Logout clears the session. It also deletes the active_session key a
// previous build may have written; nothing reads it anymore.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.DeleteKV(store.KeyActiveSession); err != nil {
		m.logger.Warn("Failed to clear stale session key", zap.Error(err))
	}
}

// Current returns the signed-in user.
func (m *Manager) Current() (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		return model.User{}, apperrors.ErrNoActiveSession
	}
	return *m.current, nil
}

// Active reports whether someone is signed in.
func (m *Manager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// UpdateUser applies a partial update to the signed-in account and
// keeps the registered list consistent, so the next login still works.
func (m *Manager) UpdateUser(upd UserUpdate) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return model.User{}, apperrors.ErrNoActiveSession
	}

	u := *m.current
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}

	m.current = &u
	m.repo.ReplaceUser(u)
	return u, nil
}

// ==================== Settings ====================

// VoiceEnabled returns the persisted voice preference.
func (m *Manager) VoiceEnabled() bool {
	return m.store.GetBool(store.KeyVoiceEnabled, m.config.App.VoiceEnabled)
}

// SetVoiceEnabled persists the voice preference.
func (m *Manager) SetVoiceEnabled(enabled bool) error {
	return m.store.SetJSON(store.KeyVoiceEnabled, enabled)
}

// Language returns the persisted app language.
func (m *Manager) Language() string {
	return m.store.GetString(store.KeyAppLanguage, m.config.App.DefaultLanguage)
}

// SetLanguage persists the app language.
func (m *Manager) SetLanguage(lang string) error {
	if !config.IsSupportedLanguage(lang) {
		return apperrors.ErrBadRequest
	}
	return m.store.SetJSON(store.KeyAppLanguage, lang)
}

// HasCompletedIntro returns the intro flag.
func (m *Manager) HasCompletedIntro() bool {
	return m.store.GetBool(store.KeyHasCompletedIntro, false)
}

// SetIntroCompleted persists the intro flag.
func (m *Manager) SetIntroCompleted(done bool) error {
	return m.store.SetJSON(store.KeyHasCompletedIntro, done)
}

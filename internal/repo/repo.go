// Package repo holds the device's domain state: patients, caretakers,
// and registered accounts. State lives in memory behind a lock and is
// written through to the store after every mutation; a failed write is
// logged and retried on the next mutation rather than surfaced, so the
// app keeps working off the in-memory copy.
package repo

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pillwise/pillwise/internal/adherence"
	apperrors "github.com/pillwise/pillwise/internal/errors"
	"github.com/pillwise/pillwise/internal/model"
	"github.com/pillwise/pillwise/internal/seed"
	"github.com/pillwise/pillwise/internal/store"
	"go.uber.org/zap"
)

type Repository struct {
	mu     sync.RWMutex
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time

	patients   []model.Patient
	caretakers []model.Caretaker
	users      []model.User
}

// PatientUpdate carries the profile fields a patient update may change.
// Nil fields are left as they are.
type PatientUpdate struct {
	Name   *string
	Email  *string
	Phone  *string
	Age    *int
	Avatar *string
}

// CaretakerUpdate carries the profile fields a caretaker update may change.
type CaretakerUpdate struct {
	Name   *string
	Email  *string
	Role   *string
	Phone  *string
	Avatar *string
}

// New loads the persisted snapshot, reconciles it with the seed
// dataset, and writes the healed snapshot back.
func New(st *store.Store, logger *zap.Logger) *Repository {
	r := &Repository{
		store:  st,
		logger: logger,
		now:    time.Now,
	}

	var patients []model.Patient
	if _, err := st.GetJSON(store.KeyPatients, &patients); err != nil {
		logger.Error("Failed to load patients snapshot", zap.Error(err))
	}
	var caretakers []model.Caretaker
	if _, err := st.GetJSON(store.KeyCaretakers, &caretakers); err != nil {
		logger.Error("Failed to load caretakers snapshot", zap.Error(err))
	}
	var users []model.User
	if _, err := st.GetJSON(store.KeyRegisteredUsers, &users); err != nil {
		logger.Error("Failed to load registered users", zap.Error(err))
	}

	r.patients = ReconcilePatients(patients, seed.Patients(), seed.Medications())
	r.caretakers = ReconcileCaretakers(caretakers, seed.Caretakers())
	r.users = ReconcileUsers(users, seed.Users())

	r.persistPatients()
	r.persistCaretakers()
	r.persistUsers()

	logger.Info("Repository loaded",
		zap.Int("patients", len(r.patients)),
		zap.Int("caretakers", len(r.caretakers)),
		zap.Int("users", len(r.users)),
	)

	return r
}

// ==================== Read Methods ====================

// Patients returns a deep copy of every patient.
func (r *Repository) Patients() []model.Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.ClonePatients(r.patients)
}

// Caretakers returns a deep copy of every caretaker.
func (r *Repository) Caretakers() []model.Caretaker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.CloneCaretakers(r.caretakers)
}

// GetPatient returns the patient with the given id.
func (r *Repository) GetPatient(id string) (model.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := indexOfPatient(r.patients, id)
	if idx == -1 {
		return model.Patient{}, apperrors.ErrPatientNotFound
	}
	return r.patients[idx].Clone(), nil
}

// GetCaretaker returns the caretaker with the given id.
func (r *Repository) GetCaretaker(id string) (model.Caretaker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.caretakers {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return model.Caretaker{}, apperrors.ErrCaretakerNotFound
}

// GetPatientsByCaretaker lists the patients linked to a caretaker, in
// master-list order. An unknown caretaker yields an empty list.
func (r *Repository) GetPatientsByCaretaker(caretakerID string) []model.Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var caretaker *model.Caretaker
	for i := range r.caretakers {
		if r.caretakers[i].ID == caretakerID {
			caretaker = &r.caretakers[i]
			break
		}
	}
	if caretaker == nil {
		return []model.Patient{}
	}

	linked := make(map[string]bool, len(caretaker.PatientIDs))
	for _, id := range caretaker.PatientIDs {
		linked[id] = true
	}

	out := make([]model.Patient, 0, len(caretaker.PatientIDs))
	for _, p := range r.patients {
		if linked[p.ID] {
			out = append(out, p.Clone())
		}
	}
	return out
}

// ==================== User Methods ====================

// Users returns the registered accounts.
func (r *Repository) Users() []model.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.User(nil), r.users...)
}

// FindUserByEmail looks an account up by email, case-insensitively.
func (r *Repository) FindUserByEmail(email string) (model.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return model.User{}, false
}

// AddUser registers a new account.
func (r *Repository) AddUser(u model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = append(r.users, u)
	r.persistUsers()
}

// ReplaceUser swaps the stored account with the same id.
func (r *Repository) ReplaceUser(u model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == u.ID {
			r.users[i] = u
			break
		}
	}
	r.persistUsers()
}

// ==================== Mutation Methods ====================

// AddPatient creates a patient with the default medication plan and a
// clean history. If data carries no id one is minted. Adding an id that
// already exists is a no-op. A non-empty caretakerID also records the
// link on that caretaker.
func (r *Repository) AddPatient(caretakerID string, data model.Patient) model.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := model.Patient{
		ID:             data.ID,
		Name:           data.Name,
		Email:          data.Email,
		Phone:          data.Phone,
		Age:            data.Age,
		Avatar:         data.Avatar,
		Medications:    seed.Medications(),
		Logs:           []model.MedicationLog{},
		AdherenceScore: 100,
		LastCheckIn:    model.Timestamp(r.now()),
	}
	if p.ID == "" {
		p.ID = newID("p")
	}

	if idx := indexOfPatient(r.patients, p.ID); idx != -1 {
		return r.patients[idx].Clone()
	}

	r.patients = append(r.patients, p)
	r.persistPatients()

	if caretakerID != "" {
		for i := range r.caretakers {
			if r.caretakers[i].ID == caretakerID {
				r.caretakers[i].PatientIDs = append(r.caretakers[i].PatientIDs, p.ID)
			}
		}
		r.persistCaretakers()
	}

	return p.Clone()
}

// AddCaretaker creates a caretaker with the given id and an empty
// patient list. Adding an existing id is a no-op.
func (r *Repository) AddCaretaker(id string, data model.Caretaker) model.Caretaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.caretakers {
		if c.ID == id {
			r.logger.Debug("Caretaker already exists", zap.String("caretaker_id", id))
			return c.Clone()
		}
	}

	c := model.Caretaker{
		ID:         id,
		Name:       data.Name,
		Email:      data.Email,
		Role:       data.Role,
		Phone:      data.Phone,
		Avatar:     data.Avatar,
		PatientIDs: []string{},
	}
	if c.Role == "" {
		c.Role = "Caretaker"
	}
	if c.Avatar == "" {
		c.Avatar = "👤"
	}

	r.caretakers = append(r.caretakers, c)
	r.persistCaretakers()

	return c.Clone()
}

// AddMedication appends a medication to a patient's plan, minting the
// "med-" id.
func (r *Repository) AddMedication(patientID string, data model.Medication) (model.Medication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := indexOfPatient(r.patients, patientID)
	if idx == -1 {
		return model.Medication{}, apperrors.ErrPatientNotFound
	}

	med := data.Clone()
	med.ID = newID("med-")

	r.patients[idx].Medications = append(r.patients[idx].Medications, med)
	r.persistPatients()

	return med.Clone(), nil
}

// UpdatePatient applies a partial profile update.
func (r *Repository) UpdatePatient(patientID string, upd PatientUpdate) (model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := indexOfPatient(r.patients, patientID)
	if idx == -1 {
		return model.Patient{}, apperrors.ErrPatientNotFound
	}

	p := &r.patients[idx]
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.Age != nil {
		p.Age = *upd.Age
	}
	if upd.Avatar != nil {
		p.Avatar = *upd.Avatar
	}

	r.persistPatients()
	return p.Clone(), nil
}

// UpdateCaretaker applies a partial profile update.
func (r *Repository) UpdateCaretaker(caretakerID string, upd CaretakerUpdate) (model.Caretaker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.caretakers {
		if r.caretakers[i].ID != caretakerID {
			continue
		}
		c := &r.caretakers[i]
		if upd.Name != nil {
			c.Name = *upd.Name
		}
		if upd.Email != nil {
			c.Email = *upd.Email
		}
		if upd.Role != nil {
			c.Role = *upd.Role
		}
		if upd.Phone != nil {
			c.Phone = *upd.Phone
		}
		if upd.Avatar != nil {
			c.Avatar = *upd.Avatar
		}
		r.persistCaretakers()
		return c.Clone(), nil
	}

	return model.Caretaker{}, apperrors.ErrCaretakerNotFound
}

// DeletePatient removes the patient from the master list and unlinks it
// from the given caretaker. Links held by other caretakers are left
// alone.
func (r *Repository) DeletePatient(patientID, caretakerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.patients[:0]
	for _, p := range r.patients {
		if p.ID != patientID {
			kept = append(kept, p)
		}
	}
	r.patients = kept

	for i := range r.caretakers {
		if r.caretakers[i].ID != caretakerID {
			continue
		}
		ids := r.caretakers[i].PatientIDs[:0]
		for _, id := range r.caretakers[i].PatientIDs {
			if id != patientID {
				ids = append(ids, id)
			}
		}
		r.caretakers[i].PatientIDs = ids
	}

	r.persistPatients()
	r.persistCaretakers()
}

// LinkPatientToCaretaker records the patient on the caretaker's list.
func (r *Repository) LinkPatientToCaretaker(patientID, caretakerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var caretaker *model.Caretaker
	for i := range r.caretakers {
		if r.caretakers[i].ID == caretakerID {
			caretaker = &r.caretakers[i]
			break
		}
	}
	if caretaker == nil {
		return apperrors.ErrCaretakerNotFound
	}

	for _, id := range caretaker.PatientIDs {
		if id == patientID {
			return apperrors.ErrAlreadyLinked
		}
	}

	caretaker.PatientIDs = append(caretaker.PatientIDs, patientID)
	r.persistCaretakers()
	return nil
}

// AddLog appends a dose log and refreshes the patient's derived fields:
// the lifetime adherence score, the missed count, and the last check-in
// instant. A second taken or verified log for the same slot on the same
// day is rejected.
func (r *Repository) AddLog(patientID string, data model.MedicationLog) (model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := indexOfPatient(r.patients, patientID)
	if idx == -1 {
		return model.Patient{}, apperrors.ErrPatientNotFound
	}
	p := &r.patients[idx]

	if data.Counted() {
		for _, l := range p.Logs {
			if l.MedicationID == data.MedicationID &&
				l.Date == data.Date &&
				l.ScheduledTime == data.ScheduledTime &&
				l.Counted() {
				return model.Patient{}, apperrors.ErrDuplicateDose
			}
		}
	}

	log := data
	if log.ID == "" {
		log.ID = newID("log-")
	}

	p.Logs = append(p.Logs, log)
	p.AdherenceScore = adherence.Score(p.Logs)
	p.MissedMedsCount = adherence.MissedCount(p.Logs)
	p.LastCheckIn = model.Timestamp(r.now())

	r.persistPatients()
	return p.Clone(), nil
}

// ==================== Persistence ====================

func (r *Repository) persistPatients() {
	if err := r.store.SetJSON(store.KeyPatients, r.patients); err != nil {
		r.logger.Error("Failed to persist patients", zap.Error(err))
	}
}

func (r *Repository) persistCaretakers() {
	if err := r.store.SetJSON(store.KeyCaretakers, r.caretakers); err != nil {
		r.logger.Error("Failed to persist caretakers", zap.Error(err))
	}
}

func (r *Repository) persistUsers() {
	if err := r.store.SetJSON(store.KeyRegisteredUsers, r.users); err != nil {
		r.logger.Error("Failed to persist registered users", zap.Error(err))
	}
}

func newID(prefix string) string {
	return prefix + uuid.NewString()
}

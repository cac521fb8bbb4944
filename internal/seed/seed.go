// Package seed holds the embedded demo dataset. The dataset is merged
// into the persisted snapshot on every load, so demo accounts keep
// working even after the user has made local changes.
package seed

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/pillwise/pillwise/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed dataset.yaml
var raw []byte

type seedPatient struct {
	ID              string                `yaml:"id"`
	Name            string                `yaml:"name"`
	Email           string                `yaml:"email"`
	Phone           string                `yaml:"phone"`
	Age             int                   `yaml:"age"`
	Avatar          string                `yaml:"avatar"`
	AdherenceScore  int                   `yaml:"adherenceScore"`
	LastCheckIn     string                `yaml:"lastCheckIn"`
	MissedMedsCount int                   `yaml:"missedMedsCount"`
	MedicationIDs   []string              `yaml:"medicationIds"`
	Logs            []model.MedicationLog `yaml:"logs"`
}

type dataset struct {
	Medications []model.Medication `yaml:"medications"`
	DefaultPlan []string           `yaml:"defaultPlan"`
	Patients    []seedPatient      `yaml:"patients"`
	Caretakers  []model.Caretaker  `yaml:"caretakers"`
	Users       []model.User       `yaml:"users"`
}

var (
	once      sync.Once
	ds        dataset
	byID      map[string]model.Medication
	patients  []model.Patient
	parseErr  error
)

func load() {
	once.Do(func() {
		if err := yaml.Unmarshal(raw, &ds); err != nil {
			parseErr = fmt.Errorf("failed to parse seed dataset: %w", err)
			return
		}

		byID = make(map[string]model.Medication, len(ds.Medications))
		for _, m := range ds.Medications {
			byID[m.ID] = m
		}

		patients = make([]model.Patient, 0, len(ds.Patients))
		for _, sp := range ds.Patients {
			meds, err := resolvePlan(sp.MedicationIDs)
			if err != nil {
				parseErr = fmt.Errorf("patient %s: %w", sp.ID, err)
				return
			}
			patients = append(patients, model.Patient{
				ID:              sp.ID,
				Name:            sp.Name,
				Email:           sp.Email,
				Phone:           sp.Phone,
				Age:             sp.Age,
				Avatar:          sp.Avatar,
				Medications:     meds,
				Logs:            append([]model.MedicationLog(nil), sp.Logs...),
				AdherenceScore:  sp.AdherenceScore,
				LastCheckIn:     sp.LastCheckIn,
				MissedMedsCount: sp.MissedMedsCount,
			})
		}
	})
}

func resolvePlan(ids []string) ([]model.Medication, error) {
	meds := make([]model.Medication, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown medication id %q", id)
		}
		meds = append(meds, m)
	}
	return meds, nil
}

// Medications returns the default plan assigned to new patients.
func Medications() []model.Medication {
	load()
	meds, _ := resolvePlan(ds.DefaultPlan)
	return model.CloneMedications(meds)
}

// Patients returns the demo patients, deep-copied.
func Patients() []model.Patient {
	load()
	return model.ClonePatients(patients)
}

// Caretakers returns the demo caretakers, deep-copied.
func Caretakers() []model.Caretaker {
	load()
	return model.CloneCaretakers(ds.Caretakers)
}

// Users returns the demo accounts.
func Users() []model.User {
	load()
	return append([]model.User(nil), ds.Users...)
}

// Err reports whether the embedded dataset failed to parse. Checked once
// at startup; the accessors return empty slices on a bad dataset.
func Err() error {
	load()
	return parseErr
}

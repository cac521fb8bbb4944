// Package model defines the domain types persisted by the device store.
// Field names and JSON keys match the persisted snapshot format, so a
// data directory written by an earlier build keeps loading.
package model

import "time"

// Medication shapes
const (
	ShapeRound   = "round"
	ShapeCapsule = "capsule"
	ShapeOval    = "oval"
)

// Dose log statuses
const (
	StatusTaken    = "taken"
	StatusMissed   = "missed"
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// Verification methods
const (
	VerifyScan   = "scan"
	VerifyManual = "manual"
	VerifyVoice  = "voice"
)

// User account types
const (
	UserTypePatient   = "patient"
	UserTypeCaretaker = "caretaker"
)

// Medication is a scheduled medication on a patient's plan. Times are
// 24h "HH:MM" strings in device-local time.
type Medication struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Dosage       string   `json:"dosage" yaml:"dosage"`
	Frequency    string   `json:"frequency" yaml:"frequency"`
	Times        []string `json:"times" yaml:"times"`
	Color        string   `json:"color" yaml:"color"`
	Shape        string   `json:"shape" yaml:"shape"`
	Purpose      string   `json:"purpose" yaml:"purpose"`
	SideEffects  []string `json:"sideEffects" yaml:"sideEffects"`
	Instructions string   `json:"instructions" yaml:"instructions"`
}

// MedicationLog records one dose outcome. Date is "YYYY-MM-DD",
// ScheduledTime is the plan slot the log belongs to.
type MedicationLog struct {
	ID                 string `json:"id" yaml:"id"`
	MedicationID       string `json:"medicationId" yaml:"medicationId"`
	MedicationName     string `json:"medicationName" yaml:"medicationName"`
	ScheduledTime      string `json:"scheduledTime" yaml:"scheduledTime"`
	ActualTime         string `json:"actualTime,omitempty" yaml:"actualTime,omitempty"`
	Status             string `json:"status" yaml:"status"`
	VerificationMethod string `json:"verificationMethod,omitempty" yaml:"verificationMethod,omitempty"`
	Date               string `json:"date" yaml:"date"`
}

// Counted reports whether the log counts toward the adherence score.
func (l MedicationLog) Counted() bool {
	return l.Status == StatusTaken || l.Status == StatusVerified
}

type Patient struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Age             int             `json:"age"`
	Avatar          string          `json:"avatar"`
	Medications     []Medication    `json:"medications"`
	Logs            []MedicationLog `json:"logs"`
	AdherenceScore  int             `json:"adherenceScore"`
	LastCheckIn     string          `json:"lastCheckIn"`
	MissedMedsCount int             `json:"missedMedsCount"`
}

type Caretaker struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Email      string   `json:"email" yaml:"email"`
	Role       string   `json:"role" yaml:"role"`
	Phone      string   `json:"phone" yaml:"phone"`
	Avatar     string   `json:"avatar" yaml:"avatar"`
	PatientIDs []string `json:"patientIds" yaml:"patientIds"`
}

/// User is a registered account. Passwords are stored in the clear: the
// store never leaves the device and the accounts are demo-grade.
type User struct {
	ID          string `json:"id" yaml:"id"`
	Email       string `json:"email" yaml:"email"`
	Password    string `json:"password" yaml:"password"`
	Type        string `json:"type" yaml:"type"`
	PatientID   string `json:"patientId,omitempty" yaml:"patientId,omitempty"`
	CaretakerID string `json:"caretakerId,omitempty" yaml:"caretakerId,omitempty"`
}

// Clone returns a deep copy, so callers can hand out snapshots without
// sharing the backing slices.
func (m Medication) Clone() Medication {
	c := m
	c.Times = append([]string(nil), m.Times...)
	c.SideEffects = append([]string(nil), m.SideEffects...)
	return c
}

func (p Patient) Clone() Patient {
	c := p
	c.Medications = CloneMedications(p.Medications)
	c.Logs = append([]MedicationLog(nil), p.Logs...)
	return c
}

func (ct Caretaker) Clone() Caretaker {
	c := ct
	c.PatientIDs = append([]string(nil), ct.PatientIDs...)
	return c
}

func CloneMedications(meds []Medication) []Medication {
	if meds == nil {
		return nil
	}
	out := make([]Medication, len(meds))
	for i, m := range meds {
		out[i] = m.Clone()
	}
	return out
}

func ClonePatients(patients []Patient) []Patient {
	out := make([]Patient, len(patients))
	for i, p := range patients {
		out[i] = p.Clone()
	}
	return out
}

func CloneCaretakers(caretakers []Caretaker) []Caretaker {
	out := make([]Caretaker, len(caretakers))
	for i, c := range caretakers {
		out[i] = c.Clone()
	}
	return out
}

// Timestamp formats t the way the persisted snapshot stores instants.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// DateKey formats t as the "YYYY-MM-DD" key used by dose logs.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Package reminder fires due-dose events. A cron schedule wakes the
// runner every minute; any medication slot scheduled for that minute
// without a taken or verified log today produces one event.
package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/pillwise/pillwise/internal/model"
	"github.com/pillwise/pillwise/internal/repo"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DueDose describes a dose whose scheduled minute has arrived.
type DueDose struct {
	PatientID     string           `json:"patientId"`
	PatientName   string           `json:"patientName"`
	Medication    model.Medication `json:"medication"`
	ScheduledTime string           `json:"scheduledTime"`
	Date          string           `json:"date"`
}

// NotifyFunc receives each due dose as it fires.
type NotifyFunc func(DueDose)

// Runner drives the minute tick.
type Runner struct {
	repo    *repo.Repository
	logger  *zap.Logger
	notify  NotifyFunc
	now     func() time.Time
	cron    *cron.Cron
	mu      sync.RWMutex
	running bool
}

func NewRunner(r *repo.Repository, logger *zap.Logger, notify NotifyFunc) *Runner {
	return &Runner{
		repo:   r,
		logger: logger,
		notify: notify,
		now:    time.Now,
	}
}

// Start schedules the minute check.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("reminder runner already running")
	}

	r.cron = cron.New()
	if _, err := r.cron.AddFunc("* * * * *", r.check); err != nil {
		return fmt.Errorf("failed to schedule reminder check: %w", err)
	}
	r.cron.Start()
	r.running = true

	r.logger.Info("Reminder runner started")
	return nil
}

// Stop halts the schedule and waits for an in-flight check.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	<-c.Stop().Done()
	r.logger.Info("Reminder runner stopped")
}

// IsRunning returns whether the runner is active
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Runner) check() {
	due := CheckDue(r.repo.Patients(), r.now())
	for _, d := range due {
		r.logger.Info("Dose due",
			zap.String("patient_id", d.PatientID),
			zap.String("medication", d.Medication.Name),
			zap.String("time", d.ScheduledTime),
		)
		if r.notify != nil {
			r.notify(d)
		}
	}
}

// CheckDue returns every dose scheduled for now's minute that has no
// taken or verified log today. Missed and pending logs do not suppress
// the reminder.
func CheckDue(patients []model.Patient, now time.Time) []DueDose {
	slot := now.Format("15:04")
	date := model.DateKey(now)

	var due []DueDose
	for _, p := range patients {
		for _, med := range p.Medications {
			for _, t := range med.Times {
				if t != slot || doseLogged(p.Logs, med.ID, date, t) {
					continue
				}
				due = append(due, DueDose{
					PatientID:     p.ID,
					PatientName:   p.Name,
					Medication:    med.Clone(),
					ScheduledTime: t,
					Date:          date,
				})
			}
		}
	}
	return due
}

func doseLogged(logs []model.MedicationLog, medID, date, slot string) bool {
	for _, l := range logs {
		if l.MedicationID == medID && l.Date == date && l.ScheduledTime == slot && l.Counted() {
			return true
		}
	}
	return false
}

// Package adherence computes dose schedules and adherence scores. All
// functions are pure: the caller supplies the clock, which keeps the
// minute arithmetic testable.
package adherence

import (
	"math"
	"sort"
	"time"

	"github.com/pillwise/pillwise/internal/model"
)

// Dose is one scheduled slot of a medication on the day's plan.
type Dose struct {
	Medication model.Medication `json:"medication"`
	Time       string           `json:"time"`
	Overdue    bool             `json:"overdue"`
}

// parseMinutes converts "HH:MM" to minutes since midnight. Malformed
// times are skipped by the callers rather than treated as midnight.
func parseMinutes(t string) (int, bool) {
	if len(t) != 5 || t[2] != ':' {
		return 0, false
	}
	h := int(t[0]-'0')*10 + int(t[1]-'0')
	m := int(t[3]-'0')*10 + int(t[4]-'0')
	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return 0, false
	}
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// loggedDone reports whether the slot already has a taken or verified
// log for the given date.
func loggedDone(logs []model.MedicationLog, medID, date, slot string) bool {
	for _, l := range logs {
		if l.MedicationID == medID && l.Date == date && l.ScheduledTime == slot && l.Counted() {
			return true
		}
	}
	return false
}

type slot struct {
	dose    Dose
	minutes int
}

// daySlots expands the plan into today's undone slots, split into
// overdue (scheduled before now) and upcoming (now or later).
func daySlots(p model.Patient, now time.Time) (overdue, upcoming []slot) {
	date := model.DateKey(now)
	nowMin := now.Hour()*60 + now.Minute()

	for _, med := range p.Medications {
		for _, t := range med.Times {
			min, ok := parseMinutes(t)
			if !ok {
				continue
			}
			if loggedDone(p.Logs, med.ID, date, t) {
				continue
			}
			s := slot{dose: Dose{Medication: med, Time: t}, minutes: min}
			if min < nowMin {
				s.dose.Overdue = true
				overdue = append(overdue, s)
			} else {
				upcoming = append(upcoming, s)
			}
		}
	}
	return overdue, upcoming
}

// NextDose picks the dose the patient should act on: any overdue dose
// beats every upcoming one, and among overdue doses the one that became
// due last (closest to now) wins, so the patient is steered to the dose
// still worth taking. Returns nil when the day's plan is done.
func NextDose(p model.Patient, now time.Time) *Dose {
	overdue, upcoming := daySlots(p, now)

	if len(overdue) > 0 {
		sort.SliceStable(overdue, func(i, j int) bool {
			return overdue[i].minutes > overdue[j].minutes
		})
		d := overdue[0].dose
		return &d
	}
	if len(upcoming) > 0 {
		sort.SliceStable(upcoming, func(i, j int) bool {
			return upcoming[i].minutes < upcoming[j].minutes
		})
		d := upcoming[0].dose
		return &d
	}
	return nil
}

// RemainingToday lists the still-upcoming doses in schedule order,
// capped at three entries. Doses scheduled at exactly now are not
// remaining: they are the current dose.
func RemainingToday(p model.Patient, now time.Time) []Dose {
	date := model.DateKey(now)
	nowMin := now.Hour()*60 + now.Minute()

	var slots []slot
	for _, med := range p.Medications {
		for _, t := range med.Times {
			min, ok := parseMinutes(t)
			if !ok {
				continue
			}
			if min <= nowMin {
				continue
			}
			if loggedDone(p.Logs, med.ID, date, t) {
				continue
			}
			slots = append(slots, slot{dose: Dose{Medication: med, Time: t}, minutes: min})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].minutes < slots[j].minutes })
	if len(slots) > 3 {
		slots = slots[:3]
	}

	doses := make([]Dose, len(slots))
	for i, s := range slots {
		doses[i] = s.dose
	}
	return doses
}

// Score is the lifetime adherence score: the share of logs that were
// taken or verified, rounded to the nearest percent. An empty history
// scores 100.
func Score(logs []model.MedicationLog) int {
	if len(logs) == 0 {
		return 100
	}
	taken := 0
	for _, l := range logs {
		if l.Counted() {
			taken++
		}
	}
	return int(math.Round(float64(taken) / float64(len(logs)) * 100))
}

// MissedCount counts the missed logs across the patient's history.
func MissedCount(logs []model.MedicationLog) int {
	missed := 0
	for _, l := range logs {
		if l.Status == model.StatusMissed {
			missed++
		}
	}
	return missed
}

// TodayStatus summarizes the home card: taken counts every taken or
// verified log on record, total is the number of slots on today's plan,
// missed is the lifetime missed count.
func TodayStatus(p model.Patient) (taken, missed, total int) {
	for _, l := range p.Logs {
		if l.Counted() {
			taken++
		}
	}
	missed = MissedCount(p.Logs)
	for _, med := range p.Medications {
		total += len(med.Times)
	}
	return taken, missed, total
}

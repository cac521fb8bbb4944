package adherence

import (
	"testing"
	"time"

	"github.com/pillwise/pillwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", "2026-03-02 "+hhmm)
	require.NoError(t, err)
	return parsed
}

func med(id, name string, times ...string) model.Medication {
	return model.Medication{ID: id, Name: name, Times: times}
}

func takenLog(medID, date, slot string) model.MedicationLog {
	return model.MedicationLog{
		ID:            "log-" + medID + "-" + slot,
		MedicationID:  medID,
		ScheduledTime: slot,
		Status:        model.StatusTaken,
		Date:          date,
	}
}

func TestNextDoseOverdueBeatsUpcoming(t *testing.T) {
	p := model.Patient{Medications: []model.Medication{med("m1", "Metformin", "07:00", "09:00")}}

	d := NextDose(p, clock(t, "08:00"))
	require.NotNil(t, d)
	assert.Equal(t, "07:00", d.Time)
	assert.True(t, d.Overdue)
}

func TestNextDosePicksMostRecentlyDue(t *testing.T) {
	p := model.Patient{Medications: []model.Medication{
		med("m1", "Metformin", "07:00"),
		med("m2", "Lisinopril", "07:30"),
	}}

	// Both overdue at 09:00; the one that became due last wins.
	d := NextDose(p, clock(t, "09:00"))
	require.NotNil(t, d)
	assert.Equal(t, "m2", d.Medication.ID)
	assert.Equal(t, "07:30", d.Time)
	assert.True(t, d.Overdue)
}

func TestNextDoseSoonestUpcoming(t *testing.T) {
	p := model.Patient{Medications: []model.Medication{
		med("m1", "Metformin", "20:00"),
		med("m2", "Lisinopril", "14:00"),
	}}

	d := NextDose(p, clock(t, "10:00"))
	require.NotNil(t, d)
	assert.Equal(t, "m2", d.Medication.ID)
	assert.False(t, d.Overdue)
}

func TestNextDoseSlotAtNowIsUpcoming(t *testing.T) {
	p := model.Patient{Medications: []model.Medication{med("m1", "Metformin", "08:00")}}

	d := NextDose(p, clock(t, "08:00"))
	require.NotNil(t, d)
	assert.False(t, d.Overdue)
}

func TestNextDoseSkipsLoggedSlots(t *testing.T) {
	p := model.Patient{
		Medications: []model.Medication{med("m1", "Metformin", "07:00", "09:00")},
		Logs:        []model.MedicationLog{takenLog("m1", "2026-03-02", "07:00")},
	}

	d := NextDose(p, clock(t, "08:00"))
	require.NotNil(t, d)
	assert.Equal(t, "09:00", d.Time)
	assert.False(t, d.Overdue)
}

func TestNextDoseMissedLogDoesNotClearSlot(t *testing.T) {
	p := model.Patient{
		Medications: []model.Medication{med("m1", "Metformin", "07:00")},
		Logs: []model.MedicationLog{{
			MedicationID: "m1", ScheduledTime: "07:00",
			Status: model.StatusMissed, Date: "2026-03-02",
		}},
	}

	d := NextDose(p, clock(t, "08:00"))
	require.NotNil(t, d)
	assert.Equal(t, "07:00", d.Time)
}

func TestNextDoseLogFromAnotherDayIgnored(t *testing.T) {
	p := model.Patient{
		Medications: []model.Medication{med("m1", "Metformin", "07:00")},
		Logs:        []model.MedicationLog{takenLog("m1", "2026-03-01", "07:00")},
	}

	d := NextDose(p, clock(t, "08:00"))
	require.NotNil(t, d)
	assert.Equal(t, "07:00", d.Time)
}

func TestNextDoseAllCaughtUp(t *testing.T) {
	p := model.Patient{
		Medications: []model.Medication{med("m1", "Metformin", "07:00")},
		Logs:        []model.MedicationLog{takenLog("m1", "2026-03-02", "07:00")},
	}

	assert.Nil(t, NextDose(p, clock(t, "08:00")))
}

func TestNextDoseSkipsMalformedTimes(t *testing.T) {
	p := model.Patient{Medications: []model.Medication{
		med("m1", "Metformin", "bogus", "25:99", ""),
		med("m2", "Lisinopril", "10:00"),
	}}

	d := NextDose(p, clock(t, "09:00"))
	require.NotNil(t, d)
	assert.Equal(t, "m2", d.Medication.ID)
}

func TestRemainingTodayUpcomingOnly(t *testing.T) {
	p := model.Patient{Medications: []model.Medication{
		med("m1", "Metformin", "07:00", "12:00", "20:00"),
		med("m2", "Lisinopril", "14:00"),
	}}

	doses := RemainingToday(p, clock(t, "10:00"))
	require.Len(t, doses, 3)
	assert.Equal(t, "12:00", doses[0].Time)
	assert.Equal(t, "14:00", doses[1].Time)
	assert.Equal(t, "20:00", doses[2].Time)
}

func TestRemainingTodayCapsAtThree(t *testing.T) {
	p := model.Patient{Medications: []model.Medication{
		med("m1", "A", "11:00", "12:00"),
		med("m2", "B", "13:00", "14:00"),
	}}

	doses := RemainingToday(p, clock(t, "10:00"))
	require.Len(t, doses, 3)
	assert.Equal(t, "13:00", doses[2].Time)
}

func TestRemainingTodayExcludesNowAndTaken(t *testing.T) {
	p := model.Patient{
		Medications: []model.Medication{med("m1", "Metformin", "10:00", "12:00", "20:00")},
		Logs:        []model.MedicationLog{takenLog("m1", "2026-03-02", "12:00")},
	}

	doses := RemainingToday(p, clock(t, "10:00"))
	require.Len(t, doses, 1)
	assert.Equal(t, "20:00", doses[0].Time)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     int
	}{
		{"empty history", nil, 100},
		{"all taken", []string{model.StatusTaken, model.StatusVerified}, 100},
		{"all missed", []string{model.StatusMissed, model.StatusMissed}, 0},
		{"two of three", []string{model.StatusTaken, model.StatusVerified, model.StatusMissed}, 67},
		{"one of three", []string{model.StatusTaken, model.StatusMissed, model.StatusMissed}, 33},
		{"pending does not count", []string{model.StatusTaken, model.StatusPending}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := make([]model.MedicationLog, len(tt.statuses))
			for i, s := range tt.statuses {
				logs[i] = model.MedicationLog{Status: s}
			}
			assert.Equal(t, tt.want, Score(logs))
		})
	}
}

func TestTodayStatusCountsLifetimeTaken(t *testing.T) {
	// Taken counts every counted log on record, not only today's.
	p := model.Patient{
		Medications: []model.Medication{med("m1", "Metformin", "08:00", "20:00")},
		Logs: []model.MedicationLog{
			takenLog("m1", "2026-03-01", "08:00"),
			takenLog("m1", "2026-03-02", "08:00"),
			{MedicationID: "m1", ScheduledTime: "20:00", Status: model.StatusMissed, Date: "2026-03-01"},
		},
	}

	taken, missed, total := TodayStatus(p)
	assert.Equal(t, 2, taken)
	assert.Equal(t, 1, missed)
	assert.Equal(t, 2, total)
}

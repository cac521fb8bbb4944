package reminder

import (
	"testing"
	"time"

	"github.com/pillwise/pillwise/internal/config"
	"github.com/pillwise/pillwise/internal/model"
	"github.com/pillwise/pillwise/internal/repo"
	"github.com/pillwise/pillwise/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("15:04", hhmm)
	require.NoError(t, err)
	return time.Date(2026, 3, 2, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
}

func TestCheckDueFiresAtScheduledMinute(t *testing.T) {
	patients := []model.Patient{
		{
			ID:   "p1",
			Name: "Rajesh",
			Medications: []model.Medication{
				{ID: "1", Name: "Metformin", Times: []string{"08:00", "20:00"}},
				{ID: "2", Name: "Lisinopril", Times: []string{"08:00"}},
			},
		},
	}

	due := CheckDue(patients, at(t, "08:00"))
	require.Len(t, due, 2)
	assert.Equal(t, "Metformin", due[0].Medication.Name)
	assert.Equal(t, "08:00", due[0].ScheduledTime)
	assert.Equal(t, "2026-03-02", due[0].Date)
	assert.Equal(t, "Lisinopril", due[1].Medication.Name)

	assert.Empty(t, CheckDue(patients, at(t, "08:01")))
}

func TestCheckDueSkipsLoggedDose(t *testing.T) {
	patients := []model.Patient{
		{
			ID:          "p1",
			Medications: []model.Medication{{ID: "1", Name: "Metformin", Times: []string{"08:00"}}},
			Logs: []model.MedicationLog{
				{MedicationID: "1", Date: "2026-03-02", ScheduledTime: "08:00", Status: model.StatusTaken},
			},
		},
	}

	assert.Empty(t, CheckDue(patients, at(t, "08:00")))
}

func TestCheckDueIgnoresMissedAndPendingLogs(t *testing.T) {
	patients := []model.Patient{
		{
			ID:          "p1",
			Medications: []model.Medication{{ID: "1", Name: "Metformin", Times: []string{"08:00"}}},
			Logs: []model.MedicationLog{
				{MedicationID: "1", Date: "2026-03-02", ScheduledTime: "08:00", Status: model.StatusMissed},
				{MedicationID: "1", Date: "2026-03-02", ScheduledTime: "08:00", Status: model.StatusPending},
			},
		},
	}

	due := CheckDue(patients, at(t, "08:00"))
	assert.Len(t, due, 1)
}

func TestCheckDueIgnoresOtherDayLogs(t *testing.T) {
	patients := []model.Patient{
		{
			ID:          "p1",
			Medications: []model.Medication{{ID: "1", Name: "Metformin", Times: []string{"08:00"}}},
			Logs: []model.MedicationLog{
				{MedicationID: "1", Date: "2026-03-01", ScheduledTime: "08:00", Status: model.StatusTaken},
			},
		},
	}

	assert.Len(t, CheckDue(patients, at(t, "08:00")), 1)
}

func TestRunnerLifecycle(t *testing.T) {
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	st, err := store.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	r := repo.New(st, zap.NewNop())

	runner := NewRunner(r, zap.NewNop(), nil)
	assert.False(t, runner.IsRunning())

	require.NoError(t, runner.Start())
	assert.True(t, runner.IsRunning())
	assert.Error(t, runner.Start())

	runner.Stop()
	assert.False(t, runner.IsRunning())

	// Stopping twice is harmless.
	runner.Stop()
}

func TestRunnerCheckNotifies(t *testing.T) {
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	st, err := store.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	r := repo.New(st, zap.NewNop())

	var fired []DueDose
	runner := NewRunner(r, zap.NewNop(), func(d DueDose) { fired = append(fired, d) })
	runner.now = func() time.Time { return at(t, "08:00") }

	runner.check()

	// Seed patients carry several 08:00 doses with no log today.
	require.NotEmpty(t, fired)
	for _, d := range fired {
		assert.Equal(t, "08:00", d.ScheduledTime)
	}
}

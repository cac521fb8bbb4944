package repo

import (
	"strings"

	"github.com/pillwise/pillwise/internal/model"
)

// ReconcilePatients merges the persisted patient snapshot with the seed
// patients. Seed patients missing from the snapshot are appended. For a
// persisted seed patient, an empty plan is replaced wholesale; otherwise
// missing seed medications are appended and existing ones are refreshed
// in place, so demo plans pick up updated names and times. User-added
// medications are never removed or reordered. Finally, any patient left
// without medications receives the default plan.
func ReconcilePatients(persisted, seedPatients []model.Patient, defaultPlan []model.Medication) []model.Patient {
	merged := make([]model.Patient, 0, len(persisted)+len(seedPatients))
	merged = append(merged, persisted...)

	for _, sp := range seedPatients {
		idx := indexOfPatient(merged, sp.ID)
		if idx == -1 {
			merged = append(merged, sp.Clone())
			continue
		}

		if len(merged[idx].Medications) == 0 {
			merged[idx].Medications = model.CloneMedications(sp.Medications)
			continue
		}

		for _, med := range sp.Medications {
			midx := indexOfMedication(merged[idx].Medications, med.ID)
			if midx == -1 {
				merged[idx].Medications = append(merged[idx].Medications, med.Clone())
			} else {
				merged[idx].Medications[midx] = med.Clone()
			}
		}
	}

	for i := range merged {
		if len(merged[i].Medications) == 0 {
			merged[i].Medications = model.CloneMedications(defaultPlan)
		}
	}

	return merged
}

// ReconcileCaretakers appends seed caretakers missing from the
// persisted snapshot. Persisted caretakers are left untouched, links
// included.
func ReconcileCaretakers(persisted, seedCaretakers []model.Caretaker) []model.Caretaker {
	merged := make([]model.Caretaker, 0, len(persisted)+len(seedCaretakers))
	merged = append(merged, persisted...)

	for _, sc := range seedCaretakers {
		found := false
		for _, c := range merged {
			if c.ID == sc.ID {
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, sc.Clone())
		}
	}

	return merged
}

// ReconcileUsers keeps signed-up accounts and forces the demo accounts
// to their current seed definition: any persisted account sharing a
// seed email (case-insensitive) is dropped and the seed account pushed
// in its place. An empty snapshot yields the seed accounts alone.
func ReconcileUsers(persisted, seedUsers []model.User) []model.User {
	merged := append([]model.User(nil), persisted...)

	for _, su := range seedUsers {
		kept := merged[:0]
		for _, u := range merged {
			if !strings.EqualFold(u.Email, su.Email) {
				kept = append(kept, u)
			}
		}
		merged = append(kept, su)
	}

	return merged
}

func indexOfPatient(patients []model.Patient, id string) int {
	for i, p := range patients {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func indexOfMedication(meds []model.Medication, id string) int {
	for i, m := range meds {
		if m.ID == id {
			return i
		}
	}
	return -1
}

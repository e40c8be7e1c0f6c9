package scheduling

import (
	"context"
	"testing"
	"time"

	"clinicore/models"
	"clinicore/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlockFixture(now time.Time) (*BlockRegistry, *fakeBlockRepo, *fakeApptRepo) {
	blocks := newFakeBlockRepo()
	appts := newFakeApptRepo()
	return NewBlockRegistry(blocks, appts, utils.FixedClock{T: now}), blocks, appts
}

func TestCreateSingleBlock(t *testing.T) {
	registry, blocks, _ := newBlockFixture(yesterday)

	res, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID: "doc-1",
		Start:    dayStart.Add(14 * time.Hour),
		End:      dayStart.Add(15 * time.Hour),
		Reason:   "staff meeting",
	})
	require.NoError(t, err)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, models.BlockOther, res.Blocks[0].BlockType)
	assert.Empty(t, res.Blocks[0].RecurrenceID)
	assert.Len(t, blocks.blocks, 1)
}

func TestCreateBlockValidation(t *testing.T) {
	registry, _, _ := newBlockFixture(yesterday)

	var verr *ValidationError
	_, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID: "doc-1",
		Start:    dayStart.Add(15 * time.Hour),
		End:      dayStart.Add(14 * time.Hour),
	})
	assert.ErrorAs(t, err, &verr)

	_, err = registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID:   "doc-1",
		Start:      dayStart.Add(14 * time.Hour),
		End:        dayStart.Add(15 * time.Hour),
		Recurrence: "fortnightly",
	})
	assert.ErrorAs(t, err, &verr)

	// Past start is rejected for ordinary blocks.
	_, err = registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID: "doc-1",
		Start:    yesterday.Add(-2 * time.Hour),
		End:      yesterday.Add(-1 * time.Hour),
	})
	assert.ErrorAs(t, err, &verr)

	var aerr *AuthorizationError
	_, err = registry.Create(context.Background(), patientActor(), BlockRequest{
		DoctorID: "doc-1",
		Start:    dayStart.Add(14 * time.Hour),
		End:      dayStart.Add(15 * time.Hour),
	})
	assert.ErrorAs(t, err, &aerr)
}

func TestEmergencyBlockMayStartInThePast(t *testing.T) {
	registry, _, _ := newBlockFixture(yesterday)

	res, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID:  "doc-1",
		Start:     yesterday.Add(-time.Hour),
		End:       yesterday.Add(3 * time.Hour),
		BlockType: models.BlockEmergency,
	})
	require.NoError(t, err)
	assert.Len(t, res.Blocks, 1)
}

func TestWeeklyRecurrenceExpansion(t *testing.T) {
	registry, _, _ := newBlockFixture(yesterday)

	res, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID:      "doc-1",
		Start:         dayStart.Add(14 * time.Hour),
		End:           dayStart.Add(15 * time.Hour),
		Recurrence:    models.RecurrenceWeekly,
		RecurrenceEnd: dayStart.AddDate(0, 0, 21).Add(15 * time.Hour),
	})
	require.NoError(t, err)
	// June 2, 9, 16 and 23.
	require.Len(t, res.Blocks, 4)

	recurrenceID := res.Blocks[0].RecurrenceID
	require.NotEmpty(t, recurrenceID)
	for i, b := range res.Blocks {
		assert.Equal(t, recurrenceID, b.RecurrenceID)
		assert.Equal(t, dayStart.AddDate(0, 0, 7*i).Add(14*time.Hour), b.Start)
		assert.Equal(t, time.Hour, b.End.Sub(b.Start))
	}
}

func TestRecurrenceCappedAtHorizon(t *testing.T) {
	registry, _, _ := newBlockFixture(yesterday)

	// No explicit end: daily recurrence runs to the three-month horizon.
	res, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID:   "doc-1",
		Start:      dayStart.Add(8 * time.Hour),
		End:        dayStart.Add(9 * time.Hour),
		Recurrence: models.RecurrenceDaily,
	})
	require.NoError(t, err)
	assert.Greater(t, len(res.Blocks), 80)
	assert.LessOrEqual(t, len(res.Blocks), 91)

	horizon := yesterday.Add(models.MaxRecurrenceHorizon)
	for _, b := range res.Blocks {
		assert.False(t, b.Start.After(horizon))
	}
}

func TestMonthlyRecurrenceExpansion(t *testing.T) {
	registry, _, _ := newBlockFixture(yesterday)

	res, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID:      "doc-1",
		Start:         dayStart.Add(10 * time.Hour),
		End:           dayStart.Add(11 * time.Hour),
		Recurrence:    models.RecurrenceMonthly,
		RecurrenceEnd: dayStart.AddDate(0, 2, 0).Add(11 * time.Hour),
	})
	require.NoError(t, err)
	// June 2, July 2 and August 2.
	require.Len(t, res.Blocks, 3)
	assert.Equal(t, dayStart.AddDate(0, 1, 0).Add(10*time.Hour), res.Blocks[1].Start)
}

func TestCreateBlockReportsAffectedAppointments(t *testing.T) {
	registry, _, appts := newBlockFixture(yesterday)

	appts.put(&models.Appointment{
		ID: "a1", PatientID: "pat-1", DoctorID: "doc-1",
		Start:  dayStart.Add(14 * time.Hour),
		End:    dayStart.Add(14*time.Hour + 30*time.Minute),
		Status: models.AppointmentScheduled,
	})
	appts.put(&models.Appointment{
		ID: "a2", PatientID: "pat-2", DoctorID: "doc-1",
		Start:  dayStart.Add(14*time.Hour + 30*time.Minute),
		End:    dayStart.Add(15 * time.Hour),
		Status: models.AppointmentCancelledByPatient,
	})

	res, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID: "doc-1",
		Start:    dayStart.Add(14 * time.Hour),
		End:      dayStart.Add(15 * time.Hour),
	})
	require.NoError(t, err)
	// The cancelled appointment does not count.
	require.Len(t, res.AffectedAppointments, 1)
	assert.Equal(t, "a1", res.AffectedAppointments[0].ID)
}

func TestDeleteBlockGuards(t *testing.T) {
	registry, blocks, _ := newBlockFixture(yesterday)

	started := &models.TimeBlock{
		ID: "b1", DoctorID: "doc-1",
		Start: yesterday.Add(-time.Hour), End: yesterday.Add(time.Hour),
	}
	require.NoError(t, blocks.Create(context.Background(), started))

	var serr *StateError
	assert.ErrorAs(t, registry.Delete(context.Background(), clinicActor(), "b1"), &serr)

	future := &models.TimeBlock{
		ID: "b2", DoctorID: "doc-1",
		Start: dayStart.Add(14 * time.Hour), End: dayStart.Add(15 * time.Hour),
	}
	require.NoError(t, blocks.Create(context.Background(), future))
	require.NoError(t, registry.Delete(context.Background(), clinicActor(), "b2"))
	assert.Len(t, blocks.blocks, 1)

	var aerr *AuthorizationError
	assert.ErrorAs(t, registry.Delete(context.Background(), patientActor(), "b1"), &aerr)
}

func TestDeleteSeriesRemovesOnlyFutureOccurrences(t *testing.T) {
	registry, blocks, _ := newBlockFixture(yesterday)

	res, err := registry.Create(context.Background(), clinicActor(), BlockRequest{
		DoctorID:      "doc-1",
		Start:         dayStart.Add(14 * time.Hour),
		End:           dayStart.Add(15 * time.Hour),
		Recurrence:    models.RecurrenceWeekly,
		RecurrenceEnd: dayStart.AddDate(0, 0, 28),
	})
	require.NoError(t, err)
	require.Len(t, res.Blocks, 4)

	removed, err := registry.DeleteSeries(context.Background(), clinicActor(), res.Blocks[0].RecurrenceID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.Empty(t, blocks.blocks)
}

package scheduling

import (
	"context"
	"sync"
	"time"

	schedulerRepo "clinicore/database/repository/scheduler"
	"clinicore/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory stand-ins for the Mongo repositories. They reproduce the query
// semantics the services rely on: cancelled appointments never occupy a
// slot, and overlap uses half-open intervals.

type fakeApptRepo struct {
	mu    sync.Mutex
	appts map[string]*models.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: map[string]*models.Appointment{}}
}

func (f *fakeApptRepo) put(a *models.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.appts[a.ID] = &cp
}

func (f *fakeApptRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok || a.Deleted {
		return nil, mongo.ErrNoDocuments
	}
	cp := *a
	return &cp, nil
}

func (f *fakeApptRepo) Update(_ context.Context, appt *models.Appointment) error {
	f.put(appt)
	return nil
}

func (f *fakeApptRepo) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.appts[id]; ok {
		a.Deleted = true
	}
	return nil
}

func (f *fakeApptRepo) ListByDoctorAndRange(_ context.Context, doctorID string, from, to time.Time) ([]models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID && !a.Deleted && a.Start.Before(to) && from.Before(a.End) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeApptRepo) CountOverlapping(_ context.Context, doctorID string, start, end time.Time, excludeID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.ID != excludeID && !a.Deleted && !a.IsCancelled() && a.Overlaps(start, end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeApptRepo) CountUpcoming(_ context.Context, doctorID, patientID string, after time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.PatientID == patientID && !a.Deleted && a.IsActive() && a.Start.After(after) {
			n++
		}
	}
	return n, nil
}

func (f *fakeApptRepo) HasActiveOnDay(_ context.Context, doctorID, patientID string, dayStart, dayEnd time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.PatientID == patientID && !a.Deleted && a.IsActive() &&
			!a.Start.Before(dayStart) && a.Start.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeApptRepo) CountPatientCancellationsSince(_ context.Context, patientID string, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.appts {
		if a.PatientID == patientID && a.Status == models.AppointmentCancelledByPatient && a.UpdatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

type fakeDirectory struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]*models.User{}}
}

func (f *fakeDirectory) add(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = &u
}

func (f *fakeDirectory) Get(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	return &cp, nil
}

type fakeBlockRepo struct {
	mu     sync.Mutex
	blocks map[string]*models.TimeBlock
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocks: map[string]*models.TimeBlock{}}
}

func (f *fakeBlockRepo) Create(_ context.Context, b *models.TimeBlock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.blocks[b.ID] = &cp
	return nil
}

func (f *fakeBlockRepo) CreateMany(ctx context.Context, blocks []models.TimeBlock) error {
	for i := range blocks {
		if err := f.Create(ctx, &blocks[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBlockRepo) GetByID(_ context.Context, id string) (*models.TimeBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blocks[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBlockRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blocks, id)
	return nil
}

func (f *fakeBlockRepo) DeleteByRecurrenceID(_ context.Context, recurrenceID string, from time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, b := range f.blocks {
		if b.RecurrenceID == recurrenceID && b.Start.After(from) {
			delete(f.blocks, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeBlockRepo) ListByDoctorAndRange(_ context.Context, doctorID string, from, to time.Time) ([]models.TimeBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TimeBlock
	for _, b := range f.blocks {
		if b.DoctorID == doctorID && b.Start.Before(to) && from.Before(b.End) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBlockRepo) CountOverlapping(_ context.Context, doctorID string, start, end time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, b := range f.blocks {
		if b.DoctorID == doctorID && b.Overlaps(start, end) {
			n++
		}
	}
	return n, nil
}

type fakeScheduleRepo struct {
	mu    sync.Mutex
	hours map[string]*models.WorkingHours
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{hours: map[string]*models.WorkingHours{}}
}

func (f *fakeScheduleRepo) Get(_ context.Context, doctorID string) (*models.WorkingHours, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hours[doctorID]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (f *fakeScheduleRepo) Upsert(_ context.Context, hours *models.WorkingHours) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *hours
	f.hours[hours.DoctorID] = &cp
	return nil
}

// fakeTxnRepo mirrors the transactional repository against the in-memory
// stores, including the conflict sentinels.
type fakeTxnRepo struct {
	appts  *fakeApptRepo
	blocks *fakeBlockRepo
	jobs   []models.ReminderJob

	cancelledJobs int64
}

func (f *fakeTxnRepo) BookTransactionally(ctx context.Context, appt *models.Appointment, jobs []models.ReminderJob) error {
	if err := f.checkConflicts(ctx, appt, ""); err != nil {
		return err
	}
	f.appts.put(appt)
	f.jobs = append(f.jobs, jobs...)
	return nil
}

func (f *fakeTxnRepo) RescheduleTransactionally(ctx context.Context, appt *models.Appointment, newJobs []models.ReminderJob) error {
	if err := f.checkConflicts(ctx, appt, appt.ID); err != nil {
		return err
	}
	f.appts.put(appt)
	f.cancelledJobs += int64(len(f.jobs))
	f.jobs = append(f.jobs, newJobs...)
	return nil
}

func (f *fakeTxnRepo) CancelTransactionally(_ context.Context, appt *models.Appointment) (int64, error) {
	f.appts.put(appt)
	n := int64(len(f.jobs))
	f.jobs = nil
	f.cancelledJobs += n
	return n, nil
}

func (f *fakeTxnRepo) checkConflicts(ctx context.Context, appt *models.Appointment, excludeID string) error {
	busy, _ := f.appts.CountOverlapping(ctx, appt.DoctorID, appt.Start, appt.End, excludeID)
	if busy > 0 {
		return schedulerRepo.ErrDoctorBusy
	}
	blocked, _ := f.blocks.CountOverlapping(ctx, appt.DoctorID, appt.Start, appt.End)
	if blocked > 0 {
		return schedulerRepo.ErrSlotBlocked
	}
	return nil
}

type fakePlanner struct {
	jobs []models.ReminderJob
}

func (f *fakePlanner) Plan(context.Context, *models.Appointment) ([]models.ReminderJob, error) {
	return f.jobs, nil
}

type fakeEnqueuer struct {
	enqueued []models.ReminderJob
}

func (f *fakeEnqueuer) EnqueueDispatch(jobs []models.ReminderJob) error {
	f.enqueued = append(f.enqueued, jobs...)
	return nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []*models.AuditEvent
}

func (f *fakeAudit) Record(_ context.Context, event *models.AuditEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type fakeOutcomes struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func newFakeOutcomes() *fakeOutcomes {
	return &fakeOutcomes{outcomes: map[string]int{}}
}

func (f *fakeOutcomes) RecordOutcome(_ context.Context, _ string, _ time.Time, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes[outcome]++
}

// weekdayHours is a Monday-to-Friday 9:00-17:00 schedule.
func weekdayHours(doctorID string) *models.WorkingHours {
	win := models.DayWindow{StartMinute: 9 * 60, EndMinute: 17 * 60, Enabled: true}
	return &models.WorkingHours{
		DoctorID: doctorID,
		Days: map[string]models.DayWindow{
			"monday":    win,
			"tuesday":   win,
			"wednesday": win,
			"thursday":  win,
			"friday":    win,
		},
	}
}

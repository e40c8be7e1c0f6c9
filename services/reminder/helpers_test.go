package reminder

import (
	"context"
	"strings"
	"sync"
	"time"

	reminderRepo "clinicore/database/repository/reminder"
	"clinicore/models"
	"clinicore/services/notification"

	"go.mongodb.org/mongo-driver/mongo"
)

// fakeJobRepo reproduces the conditional-update semantics of the Mongo job
// repository in memory: every transition checks the same preconditions, so
// the state machine behaves identically under test.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*models.ReminderJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*models.ReminderJob{}}
}

func (f *fakeJobRepo) put(j models.ReminderJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := j
	f.jobs[j.ID] = &cp
}

func (f *fakeJobRepo) get(id string) models.ReminderJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.jobs[id]
}

func (f *fakeJobRepo) Create(_ context.Context, job *models.ReminderJob) error {
	f.put(*job)
	return nil
}

func (f *fakeJobRepo) CreateMany(_ context.Context, jobs []models.ReminderJob) error {
	for i := range jobs {
		f.put(jobs[i])
	}
	return nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (*models.ReminderJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) ListByAppointment(_ context.Context, appointmentID string) ([]models.ReminderJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReminderJob
	for _, j := range f.jobs {
		if j.AppointmentID == appointmentID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ListDue(_ context.Context, now time.Time, limit int64) ([]models.ReminderJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReminderJob
	for _, j := range f.jobs {
		if j.Status == models.JobPending && !j.Cancelled && !j.ScheduledFor.After(now) {
			out = append(out, *j)
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ListRetryable(_ context.Context, retryBefore time.Time, limit int64) ([]models.ReminderJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReminderJob
	for _, j := range f.jobs {
		if j.Status == models.JobFailed && !j.Cancelled && j.Attempts < j.MaxAttempts && j.LastAttemptAt.Before(retryBefore) {
			out = append(out, *j)
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeJobRepo) Claim(_ context.Context, id string, now time.Time) (*models.ReminderJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.Status != models.JobPending || j.Cancelled {
		return nil, reminderRepo.ErrNotClaimable
	}
	j.Status = models.JobProcessing
	j.Attempts++
	j.LastAttemptAt = now
	j.UpdatedAt = now
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) MarkSent(_ context.Context, id string, now time.Time) (models.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.Status != models.JobProcessing {
		return "", reminderRepo.ErrNotClaimable
	}
	if j.Cancelled {
		j.Status = models.JobCancelled
	} else {
		j.Status = models.JobSent
	}
	j.UpdatedAt = now
	return j.Status, nil
}

func (f *fakeJobRepo) MarkFailed(_ context.Context, id, reason string, now time.Time) (models.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.Status != models.JobProcessing {
		return "", reminderRepo.ErrNotClaimable
	}
	if j.Cancelled {
		j.Status = models.JobCancelled
	} else {
		j.Status = models.JobFailed
	}
	j.FailureReason = reason
	j.UpdatedAt = now
	return j.Status, nil
}

func (f *fakeJobRepo) RequeueForRetry(_ context.Context, id string, retryAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok || j.Status != models.JobFailed || j.Cancelled || j.Attempts >= j.MaxAttempts {
		return reminderRepo.ErrNotClaimable
	}
	j.Status = models.JobPending
	j.ScheduledFor = retryAt
	return nil
}

func (f *fakeJobRepo) CancelByAppointment(_ context.Context, appointmentID string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, j := range f.jobs {
		if j.AppointmentID != appointmentID || j.Cancelled {
			continue
		}
		switch j.Status {
		case models.JobPending, models.JobFailed:
			j.Status = models.JobCancelled
			j.Cancelled = true
			j.CancelledAt = now
			n++
		case models.JobProcessing:
			j.Cancelled = true
			j.CancelledAt = now
			n++
		}
	}
	return n, nil
}

func (f *fakeJobRepo) ExpireOverdue(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, j := range f.jobs {
		if j.Cancelled {
			continue
		}
		if (j.Status == models.JobPending || j.Status == models.JobProcessing) && j.ScheduledFor.Before(cutoff) {
			j.Status = models.JobExpired
			n++
		}
	}
	return n, nil
}

// fakeApptStore is the minimal appointment lookup the reminder service
// needs; only GetByID is meaningful here.
type fakeApptStore struct {
	mu    sync.Mutex
	appts map[string]*models.Appointment
}

func newFakeApptStore() *fakeApptStore {
	return &fakeApptStore{appts: map[string]*models.Appointment{}}
}

func (f *fakeApptStore) put(a models.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := a
	f.appts[a.ID] = &cp
}

func (f *fakeApptStore) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *a
	return &cp, nil
}

func (f *fakeApptStore) Update(_ context.Context, a *models.Appointment) error {
	f.put(*a)
	return nil
}

func (f *fakeApptStore) SoftDelete(context.Context, string) error { return nil }

func (f *fakeApptStore) ListByDoctorAndRange(context.Context, string, time.Time, time.Time) ([]models.Appointment, error) {
	return nil, nil
}

func (f *fakeApptStore) CountOverlapping(context.Context, string, time.Time, time.Time, string) (int64, error) {
	return 0, nil
}

func (f *fakeApptStore) CountUpcoming(context.Context, string, string, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeApptStore) HasActiveOnDay(context.Context, string, string, time.Time, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeApptStore) CountPatientCancellationsSince(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []models.ReminderLog
}

func (f *fakeLogRepo) Create(_ context.Context, entry *models.ReminderLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeLogRepo) GetByAppointment(_ context.Context, appointmentID string) ([]models.ReminderLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReminderLog
	for _, e := range f.entries {
		if e.AppointmentID == appointmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) MarkEngagement(_ context.Context, trackingToken, event string, now time.Time) (*models.ReminderLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].TrackingToken != trackingToken {
			continue
		}
		switch event {
		case "delivered":
			f.entries[i].DeliveredAt = now
			f.entries[i].DeliveryStatus = models.DeliveryDelivered
		case "opened":
			f.entries[i].OpenedAt = now
		case "clicked":
			f.entries[i].ClickedAt = now
		}
		cp := f.entries[i]
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

type fakeSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*models.ReminderSetting
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{settings: map[string]*models.ReminderSetting{}}
}

func (f *fakeSettingRepo) GetOrCreate(_ context.Context, userID string, userType models.Role) (*models.ReminderSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.settings[userID]; ok {
		cp := *s
		return &cp, nil
	}
	s := models.DefaultReminderSetting(userID, userType)
	f.settings[userID] = &s
	cp := s
	return &cp, nil
}

func (f *fakeSettingRepo) Update(_ context.Context, setting *models.ReminderSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *setting
	f.settings[setting.UserID] = &cp
	return nil
}

type fakeAnalyticsRepo struct {
	mu   sync.Mutex
	rows map[string]*models.ReminderAnalytics
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{rows: map[string]*models.ReminderAnalytics{}}
}

func (f *fakeAnalyticsRepo) row(date, doctorID string) *models.ReminderAnalytics {
	key := date + "/" + doctorID
	if r, ok := f.rows[key]; ok {
		return r
	}
	r := &models.ReminderAnalytics{Date: date, DoctorID: doctorID, ByChannel: map[string]models.ChannelCounters{}}
	f.rows[key] = r
	return r
}

func (f *fakeAnalyticsRepo) Increment(_ context.Context, date, doctorID string, fields map[string]int) (*models.ReminderAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.row(date, doctorID)
	for field, delta := range fields {
		if strings.HasPrefix(field, "by_channel.") {
			parts := strings.Split(field, ".")
			cc := r.ByChannel[parts[1]]
			if parts[2] == "sent" {
				cc.Sent += delta
			} else {
				cc.Failed += delta
			}
			r.ByChannel[parts[1]] = cc
			continue
		}
		switch field {
		case "sent":
			r.Sent += delta
		case "failed":
			r.Failed += delta
		case "delivered":
			r.Delivered += delta
		case "opened":
			r.Opened += delta
		case "clicked":
			r.Clicked += delta
		case "kept":
			r.Kept += delta
		case "cancelled":
			r.Cancelled += delta
		case "no_show":
			r.NoShow += delta
		case "rescheduled":
			r.Rescheduled += delta
		}
	}
	cp := *r
	return &cp, nil
}

func (f *fakeAnalyticsRepo) SetRates(_ context.Context, a *models.ReminderAnalytics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.row(a.Date, a.DoctorID)
	r.DeliveryRate = a.DeliveryRate
	r.OpenRate = a.OpenRate
	r.ClickRate = a.ClickRate
	r.AttendanceRate = a.AttendanceRate
	return nil
}

func (f *fakeAnalyticsRepo) Query(_ context.Context, doctorID, from, to string) ([]models.ReminderAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReminderAnalytics
	for _, r := range f.rows {
		if r.Date < from || r.Date > to {
			continue
		}
		if doctorID != "" && r.DoctorID != doctorID {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (f *fakeUserRepo) put(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := u
	f.users[u.ID] = &cp
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.put(*user)
	return nil
}

func (f *fakeUserRepo) UpdateFCMToken(_ context.Context, id, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.FCMToken = token
	}
	return nil
}

type fakeRetryEnqueuer struct {
	mu       sync.Mutex
	enqueued []string
	fireAt   map[string]time.Time
}

func newFakeRetryEnqueuer() *fakeRetryEnqueuer {
	return &fakeRetryEnqueuer{fireAt: map[string]time.Time{}}
}

func (f *fakeRetryEnqueuer) EnqueueDispatchAt(jobID string, fireAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, jobID)
	f.fireAt[jobID] = fireAt
	return nil
}

// fakeTransport records sends and can fail on demand. onSend, when set,
// runs before the result is returned, which lets a test race a cancellation
// against an in-flight delivery.
type fakeTransport struct {
	mu      sync.Mutex
	channel models.Channel
	err     error
	onSend  func()
	sent    []*notification.Message
}

func (f *fakeTransport) Channel() models.Channel { return f.channel }

func (f *fakeTransport) Send(_ context.Context, msg *notification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSend != nil {
		f.onSend()
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

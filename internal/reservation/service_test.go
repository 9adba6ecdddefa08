package reservation_test

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"raid-reserve/internal/logger"
	"raid-reserve/internal/models"
	"raid-reserve/internal/reservation"
)

// Mock implementations for testing

type MockStore struct {
	codes        map[string]string
	apps         map[int64]*models.Application
	nextID       int64
	shouldFailOn string
	errorMsg     string

	confirmCalls []int64
	commentText  map[int64]string
	deletedIDs   []int64
	clearedKeys  []string
}

func NewMockStore() *MockStore {
	return &MockStore{
		codes:       make(map[string]string),
		apps:        make(map[int64]*models.Application),
		commentText: make(map[int64]string),
	}
}

func codeKey(day, raid string) string { return day + "/" + raid }

func (m *MockStore) UpsertDayCode(day, raid, code string) error {
	if m.shouldFailOn == "UpsertDayCode" {
		return errors.New(m.errorMsg)
	}
	m.codes[codeKey(day, raid)] = code
	return nil
}

func (m *MockStore) GetDayCode(day, raid string) (string, error) {
	if m.shouldFailOn == "GetDayCode" {
		return "", errors.New(m.errorMsg)
	}
	code, ok := m.codes[codeKey(day, raid)]
	if !ok {
		return "", sql.ErrNoRows
	}
	return code, nil
}

func (m *MockStore) CreateApplication(app *models.Application) error {
	if m.shouldFailOn == "CreateApplication" {
		return errors.New(m.errorMsg)
	}
	m.nextID++
	app.ID = m.nextID
	clone := *app
	m.apps[app.ID] = &clone
	return nil
}

func (m *MockStore) GetApplicationByID(id int64) (*models.Application, error) {
	if m.shouldFailOn == "GetApplicationByID" {
		return nil, errors.New(m.errorMsg)
	}
	app, ok := m.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *app
	return &clone, nil
}

func (m *MockStore) ListApplications(day, raid, sortMode string) ([]models.Application, error) {
	if m.shouldFailOn == "ListApplications" {
		return nil, errors.New(m.errorMsg)
	}
	var out []models.Application
	for _, app := range m.apps {
		if app.DateLocal == day && app.RaidKey == raid {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (m *MockStore) SetConfirmed(id int64, confirmed bool) error {
	if m.shouldFailOn == "SetConfirmed" {
		return errors.New(m.errorMsg)
	}
	m.confirmCalls = append(m.confirmCalls, id)
	if app, ok := m.apps[id]; ok {
		app.Confirmed = confirmed
	}
	return nil
}

func (m *MockStore) SetComment(id int64, comment string) error {
	if m.shouldFailOn == "SetComment" {
		return errors.New(m.errorMsg)
	}
	m.commentText[id] = comment
	return nil
}

func (m *MockStore) DeleteApplication(id int64) error {
	if m.shouldFailOn == "DeleteApplication" {
		return errors.New(m.errorMsg)
	}
	m.deletedIDs = append(m.deletedIDs, id)
	delete(m.apps, id)
	return nil
}

func (m *MockStore) DeleteApplicationsForDay(day, raid string) error {
	if m.shouldFailOn == "DeleteApplicationsForDay" {
		return errors.New(m.errorMsg)
	}
	m.clearedKeys = append(m.clearedKeys, codeKey(day, raid))
	for id, app := range m.apps {
		if app.DateLocal == day && app.RaidKey == raid {
			delete(m.apps, id)
		}
	}
	return nil
}

type MockPublisher struct {
	created   []models.Application
	confirmed []models.Application
	deleted   []models.Application
	failWith  error
}

func (m *MockPublisher) PublishApplicationCreated(app models.Application) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.created = append(m.created, app)
	return nil
}

func (m *MockPublisher) PublishApplicationConfirmed(app models.Application) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.confirmed = append(m.confirmed, app)
	return nil
}

func (m *MockPublisher) PublishApplicationDeleted(app models.Application) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.deleted = append(m.deleted, app)
	return nil
}

func newTestService(store *MockStore, events *MockPublisher) *reservation.Service {
	svc := reservation.NewService(store, events, &logger.Logger{}, time.UTC)
	svc.Now = func() time.Time {
		return time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	}
	return svc
}

func validSubmit() reservation.SubmitRequest {
	return reservation.SubmitRequest{
		Raid:        "dirige",
		Grade:       "pink",
		Nickname:    "mokoko",
		GroupName:   "mokoko-squad",
		DealerCount: 3,
		BufferCount: 1,
	}
}

func TestToday(t *testing.T) {
	svc := newTestService(NewMockStore(), &MockPublisher{})
	assert.Equal(t, "2026-03-01", svc.Today())
}

func TestSetCode(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	assert.ErrorIs(t, svc.SetCode("no-such-raid", "2026-03-01", "apple"), reservation.ErrUnknownRaid)

	var vErr *reservation.ValidationError
	assert.ErrorAs(t, svc.SetCode("dirige", "2026-03-01", "   "), &vErr)

	assert.NoError(t, svc.SetCode("dirige", "2026-03-01", "  apple  "))
	assert.Equal(t, "apple", store.codes["2026-03-01/dirige"])
}

func TestCheckCode(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	_, err := svc.CheckCode("no-such-raid", "2026-03-01", "apple")
	assert.ErrorIs(t, err, reservation.ErrUnknownRaid)

	// Unset code is a mismatch, not an error.
	ok, err := svc.CheckCode("dirige", "2026-03-01", "apple")
	assert.NoError(t, err)
	assert.False(t, ok)

	store.codes["2026-03-01/dirige"] = "apple"

	ok, err = svc.CheckCode("dirige", "2026-03-01", "banana")
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CheckCode("dirige", "2026-03-01", "  apple ")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitHappyPath(t *testing.T) {
	store := NewMockStore()
	events := &MockPublisher{}
	svc := newTestService(store, events)
	store.codes["2026-03-01/dirige"] = "apple"

	id, err := svc.Submit(validSubmit())
	assert.NoError(t, err)
	assert.Equal(t, int64(1), id)

	app := store.apps[id]
	assert.Equal(t, "2026-03-01", app.DateLocal)
	assert.Equal(t, "dirige", app.RaidKey)
	assert.False(t, app.Confirmed)
	assert.Equal(t, "", app.Comment)

	assert.Len(t, events.created, 1)
	assert.Equal(t, id, events.created[0].ID)
}

func TestSubmitTrimsNames(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})
	store.codes["2026-03-01/dirige"] = "apple"

	req := validSubmit()
	req.Nickname = "  mokoko  "
	req.GroupName = "\tmokoko-squad\n"

	id, err := svc.Submit(req)
	assert.NoError(t, err)
	assert.Equal(t, "mokoko", store.apps[id].Nickname)
	assert.Equal(t, "mokoko-squad", store.apps[id].GroupName)
}

func TestSubmitWithoutCode(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	_, err := svc.Submit(validSubmit())
	assert.ErrorIs(t, err, reservation.ErrCodeNotSet)
	assert.Empty(t, store.apps)
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*reservation.SubmitRequest)
	}{
		{"unknown grade", func(r *reservation.SubmitRequest) { r.Grade = "platinum" }},
		{"empty grade", func(r *reservation.SubmitRequest) { r.Grade = "" }},
		{"blank nickname", func(r *reservation.SubmitRequest) { r.Nickname = "   " }},
		{"blank group", func(r *reservation.SubmitRequest) { r.GroupName = "" }},
		{"negative dealers", func(r *reservation.SubmitRequest) { r.DealerCount = -1 }},
		{"too many dealers", func(r *reservation.SubmitRequest) { r.DealerCount = 1000 }},
		{"negative buffers", func(r *reservation.SubmitRequest) { r.BufferCount = -1 }},
		{"too many buffers", func(r *reservation.SubmitRequest) { r.BufferCount = 1000 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMockStore()
			svc := newTestService(store, &MockPublisher{})
			store.codes["2026-03-01/dirige"] = "apple"

			req := validSubmit()
			tc.mutate(&req)

			_, err := svc.Submit(req)
			var vErr *reservation.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Empty(t, store.apps)
		})
	}
}

func TestSubmitCountBounds(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})
	store.codes["2026-03-01/dirige"] = "apple"

	req := validSubmit()
	req.DealerCount = 0
	req.BufferCount = reservation.MaxCount

	_, err := svc.Submit(req)
	assert.NoError(t, err)
}

func TestSubmitUnknownRaid(t *testing.T) {
	svc := newTestService(NewMockStore(), &MockPublisher{})

	req := validSubmit()
	req.Raid = "valtan"
	_, err := svc.Submit(req)
	assert.ErrorIs(t, err, reservation.ErrUnknownRaid)
}

func TestSubmitPublishFailureDoesNotFailSubmit(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{failWith: errors.New("broker down")})
	store.codes["2026-03-01/dirige"] = "apple"

	id, err := svc.Submit(validSubmit())
	assert.NoError(t, err)
	assert.NotZero(t, id)
}

func TestToggleConfirm(t *testing.T) {
	store := NewMockStore()
	events := &MockPublisher{}
	svc := newTestService(store, events)
	store.codes["2026-03-01/dirige"] = "apple"

	id, err := svc.Submit(validSubmit())
	assert.NoError(t, err)

	assert.NoError(t, svc.ToggleConfirm(id, true))
	assert.True(t, store.apps[id].Confirmed)
	assert.Len(t, events.confirmed, 1)

	// Unconfirming does not publish.
	assert.NoError(t, svc.ToggleConfirm(id, false))
	assert.False(t, store.apps[id].Confirmed)
	assert.Len(t, events.confirmed, 1)
}

func TestToggleConfirmMissingIDIsNoOp(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	assert.NoError(t, svc.ToggleConfirm(42, true))
	assert.Empty(t, store.confirmCalls)
}

func TestSetCommentTruncates(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	long := strings.Repeat("가", reservation.MaxCommentLen+50)
	assert.NoError(t, svc.SetComment(7, long))

	stored := []rune(store.commentText[7])
	assert.Len(t, stored, reservation.MaxCommentLen)
}

func TestSetCommentShortPassesThrough(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	assert.NoError(t, svc.SetComment(7, "seated in group 2"))
	assert.Equal(t, "seated in group 2", store.commentText[7])
}

func TestDeleteOne(t *testing.T) {
	store := NewMockStore()
	events := &MockPublisher{}
	svc := newTestService(store, events)
	store.codes["2026-03-01/dirige"] = "apple"

	id, err := svc.Submit(validSubmit())
	assert.NoError(t, err)

	assert.NoError(t, svc.DeleteOne(id))
	assert.Empty(t, store.apps)
	assert.Len(t, events.deleted, 1)

	// Missing id is a silent no-op.
	assert.NoError(t, svc.DeleteOne(id))
	assert.Equal(t, []int64{id}, store.deletedIDs)
}

func TestClearToday(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	assert.ErrorIs(t, svc.ClearToday("no-such-raid"), reservation.ErrUnknownRaid)

	assert.NoError(t, svc.ClearToday("dirige"))
	assert.Equal(t, []string{"2026-03-01/dirige"}, store.clearedKeys)
}

func TestAdminListFallsBackToTimeSort(t *testing.T) {
	store := NewMockStore()
	svc := newTestService(store, &MockPublisher{})

	_, err := svc.AdminList("dirige", "nonsense")
	assert.NoError(t, err)

	_, err = svc.AdminList("no-such-raid", "grade")
	assert.ErrorIs(t, err, reservation.ErrUnknownRaid)
}

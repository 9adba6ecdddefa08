package reservation

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"raid-reserve/internal/logger"
	"raid-reserve/internal/metrics"
	"raid-reserve/internal/models"
	"raid-reserve/internal/reservation/db"
)

// MaxCount bounds dealer and buffer counts, inclusive.
const MaxCount = 999

// MaxCommentLen caps operator comments, in runes.
const MaxCommentLen = 200

type DBLayer interface {
	UpsertDayCode(day, raid, code string) error
	GetDayCode(day, raid string) (string, error)
	CreateApplication(app *models.Application) error
	GetApplicationByID(id int64) (*models.Application, error)
	ListApplications(day, raid, sortMode string) ([]models.Application, error)
	SetConfirmed(id int64, confirmed bool) error
	SetComment(id int64, comment string) error
	DeleteApplication(id int64) error
	DeleteApplicationsForDay(day, raid string) error
}

// EventPublisher streams application lifecycle events. Publish failures are
// logged and never fail the operation.
type EventPublisher interface {
	PublishApplicationCreated(app models.Application) error
	PublishApplicationConfirmed(app models.Application) error
	PublishApplicationDeleted(app models.Application) error
}

// SubmitRequest carries one viewer submission.
type SubmitRequest struct {
	Raid        string
	Grade       string
	Nickname    string
	GroupName   string
	DealerCount int
	BufferCount int
}

type Service struct {
	DB     DBLayer
	Events EventPublisher
	Logger *logger.Logger

	loc *time.Location

	// Now is a seam for tests.
	Now func() time.Time
}

func NewService(dbLayer DBLayer, events EventPublisher, log *logger.Logger, loc *time.Location) *Service {
	return &Service{
		DB:     dbLayer,
		Events: events,
		Logger: log,
		loc:    loc,
		Now:    time.Now,
	}
}

// Today is the current calendar day in the configured raid-local zone,
// formatted yyyy-mm-dd.
func (s *Service) Today() string {
	return s.Now().In(s.loc).Format("2006-01-02")
}

// Location returns the configured raid-local zone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// ---------------- ACCESS CODES ----------------

// SetCode sets or replaces the access code for (raid, day). Operator only;
// the handler layer enforces the admin session.
func (s *Service) SetCode(raid, day, code string) error {
	if !models.ValidRaid(raid) {
		return ErrUnknownRaid
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return invalid("code", "must not be empty")
	}
	if err := s.DB.UpsertDayCode(day, raid, code); err != nil {
		return fmt.Errorf("failed to save code for %s/%s: %w", raid, day, err)
	}
	s.Logger.Info("RESERVATION", fmt.Sprintf("Access code updated for raid %s on %s", raid, day))
	return nil
}

// CheckCode reports whether code matches the stored value for (raid, day).
// Unset codes and mismatches both return false. Comparison is plaintext
// exact equality, matching how codes are stored.
func (s *Service) CheckCode(raid, day, code string) (bool, error) {
	if !models.ValidRaid(raid) {
		return false, ErrUnknownRaid
	}
	stored, err := s.DB.GetDayCode(day, raid)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.CodeChecksTotal.WithLabelValues(raid, "unset").Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up code for %s/%s: %w", raid, day, err)
	}
	if stored != strings.TrimSpace(code) {
		metrics.CodeChecksTotal.WithLabelValues(raid, "mismatch").Inc()
		return false, nil
	}
	metrics.CodeChecksTotal.WithLabelValues(raid, "ok").Inc()
	return true, nil
}

// ---------------- SUBMISSIONS ----------------

// Submit validates and inserts one application for (raid, today). The
// insert is all-or-nothing; on success the new row id is returned and the
// row starts unconfirmed with an empty comment.
func (s *Service) Submit(req SubmitRequest) (int64, error) {
	if !models.ValidRaid(req.Raid) {
		return 0, ErrUnknownRaid
	}

	day := s.Today()

	// A code must still be on record for today. Viewers without it never
	// pass /verify, but the marker outlives a code the operator removes.
	if _, err := s.DB.GetDayCode(day, req.Raid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCodeNotSet
		}
		return 0, fmt.Errorf("failed to look up code for %s/%s: %w", req.Raid, day, err)
	}

	if !models.ValidGrade(req.Grade) {
		return 0, invalid("viewer_grade", "must be one of the listed grades")
	}
	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		return 0, invalid("nickname", "must not be empty")
	}
	groupName := strings.TrimSpace(req.GroupName)
	if groupName == "" {
		return 0, invalid("group_name", "must not be empty")
	}
	if req.DealerCount < 0 || req.DealerCount > MaxCount {
		return 0, invalid("dealer_count", fmt.Sprintf("must be between 0 and %d", MaxCount))
	}
	if req.BufferCount < 0 || req.BufferCount > MaxCount {
		return 0, invalid("buffer_count", fmt.Sprintf("must be between 0 and %d", MaxCount))
	}

	app := models.Application{
		DateLocal:   day,
		RaidKey:     req.Raid,
		ViewerGrade: req.Grade,
		Nickname:    nickname,
		GroupName:   groupName,
		DealerCount: req.DealerCount,
		BufferCount: req.BufferCount,
		Confirmed:   false,
		Comment:     "",
		CreatedAt:   s.Now().UTC(),
	}
	if err := s.DB.CreateApplication(&app); err != nil {
		return 0, fmt.Errorf("failed to insert application: %w", err)
	}

	metrics.SubmissionsTotal.WithLabelValues(req.Raid).Inc()
	s.Logger.Info("RESERVATION", fmt.Sprintf("Application %d registered for raid %s on %s", app.ID, req.Raid, day))

	if err := s.Events.PublishApplicationCreated(app); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (application created): %v", err))
	}

	return app.ID, nil
}

// ListToday returns today's applications for a raid in chronological order.
// Read-only; viewers always see insertion order.
func (s *Service) ListToday(raid string) ([]models.Application, error) {
	if !models.ValidRaid(raid) {
		return nil, ErrUnknownRaid
	}
	apps, err := s.DB.ListApplications(s.Today(), raid, db.SortTime)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for %s: %w", raid, err)
	}
	return apps, nil
}

// AdminList returns today's applications in the operator's chosen order.
// Any sort value other than "grade" falls back to chronological.
func (s *Service) AdminList(raid, sortMode string) ([]models.Application, error) {
	if !models.ValidRaid(raid) {
		return nil, ErrUnknownRaid
	}
	if sortMode != db.SortGrade {
		sortMode = db.SortTime
	}
	apps, err := s.DB.ListApplications(s.Today(), raid, sortMode)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications for %s: %w", raid, err)
	}
	return apps, nil
}

// ---------------- ADMIN MUTATIONS ----------------

// ToggleConfirm sets the confirmed flag on one row. A missing id is a
// silent no-op.
func (s *Service) ToggleConfirm(id int64, confirmed bool) error {
	app, err := s.DB.GetApplicationByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load application %d: %w", id, err)
	}
	if err := s.DB.SetConfirmed(id, confirmed); err != nil {
		return fmt.Errorf("failed to update application %d: %w", id, err)
	}
	app.Confirmed = confirmed
	if confirmed {
		if err := s.Events.PublishApplicationConfirmed(*app); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (application confirmed): %v", err))
		}
	}
	return nil
}

// SetComment overwrites the operator comment, truncated to MaxCommentLen
// runes. Content is not otherwise validated. Missing ids are a silent
// no-op.
func (s *Service) SetComment(id int64, text string) error {
	if runes := []rune(text); len(runes) > MaxCommentLen {
		text = string(runes[:MaxCommentLen])
	}
	if err := s.DB.SetComment(id, text); err != nil {
		return fmt.Errorf("failed to update comment on application %d: %w", id, err)
	}
	return nil
}

// DeleteOne removes exactly one row. Irreversible; missing ids are a
// silent no-op.
func (s *Service) DeleteOne(id int64) error {
	app, err := s.DB.GetApplicationByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load application %d: %w", id, err)
	}
	if err := s.DB.DeleteApplication(id); err != nil {
		return fmt.Errorf("failed to delete application %d: %w", id, err)
	}
	metrics.DeletionsTotal.WithLabelValues(app.RaidKey).Inc()
	if err := s.Events.PublishApplicationDeleted(*app); err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Publish error (application deleted): %v", err))
	}
	return nil
}

// ClearToday removes every application for (today, raid). Irreversible;
// the interaction layer shows a confirm prompt, nothing is enforced here.
func (s *Service) ClearToday(raid string) error {
	if !models.ValidRaid(raid) {
		return ErrUnknownRaid
	}
	day := s.Today()
	if err := s.DB.DeleteApplicationsForDay(day, raid); err != nil {
		return fmt.Errorf("failed to clear applications for %s/%s: %w", raid, day, err)
	}
	s.Logger.Warn("RESERVATION", fmt.Sprintf("All applications cleared for raid %s on %s", raid, day))
	return nil
}

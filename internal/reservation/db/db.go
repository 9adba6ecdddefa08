package db

import (
	"context"
	"fmt"
	"strings"

	"raid-reserve/internal/models"

	"github.com/uptrace/bun"
)

// Sort modes accepted by ListApplications.
const (
	SortTime  = "time"
	SortGrade = "grade"
)

type DB struct {
	Bun *bun.DB
}

// CreateTables bootstraps the schema. Used for the SQLite path and by
// tests; the Postgres path runs SQL migrations instead.
func (d *DB) CreateTables() error {
	ctx := context.Background()

	if _, err := d.Bun.NewCreateTable().
		Model((*models.Application)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create applications table: %w", err)
	}

	if _, err := d.Bun.NewCreateTable().
		Model((*models.DayCode)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create day_codes table: %w", err)
	}

	if _, err := d.Bun.NewCreateIndex().
		Model((*models.Application)(nil)).
		Index("idx_applications_date_raid").
		IfNotExists().
		Column("date_local", "raid_key").
		Exec(ctx); err != nil {
		return fmt.Errorf("create applications index: %w", err)
	}

	return nil
}

// ---------------- DAY CODES ----------------

// UpsertDayCode sets or replaces the code for (day, raid) as a single
// atomic conditional write.
func (d *DB) UpsertDayCode(day, raid, code string) error {
	dc := models.DayCode{DateLocal: day, RaidKey: raid, Code: code}
	_, err := d.Bun.NewInsert().
		Model(&dc).
		On("CONFLICT (date_local, raid_key) DO UPDATE").
		Set("code = EXCLUDED.code").
		Exec(context.Background())
	return err
}

// GetDayCode returns the stored code for (day, raid). Callers see
// sql.ErrNoRows when no code has been set.
func (d *DB) GetDayCode(day, raid string) (string, error) {
	var dc models.DayCode
	err := d.Bun.NewSelect().
		Model(&dc).
		Where("date_local = ?", day).
		Where("raid_key = ?", raid).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return "", err
	}
	return dc.Code, nil
}

// ---------------- APPLICATIONS ----------------

// CreateApplication inserts one row; the assigned id is written back into
// app.ID.
func (d *DB) CreateApplication(app *models.Application) error {
	_, err := d.Bun.NewInsert().Model(app).Exec(context.Background())
	return err
}

func (d *DB) GetApplicationByID(id int64) (*models.Application, error) {
	var app models.Application
	err := d.Bun.NewSelect().
		Model(&app).
		Where("id = ?", id).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ListApplications returns the rows for (day, raid). SortTime orders by
// creation time; SortGrade orders by the fixed grade priority with creation
// time as the tie-break.
func (d *DB) ListApplications(day, raid, sortMode string) ([]models.Application, error) {
	var apps []models.Application
	q := d.Bun.NewSelect().
		Model(&apps).
		Where("date_local = ?", day).
		Where("raid_key = ?", raid)

	if sortMode == SortGrade {
		q = q.OrderExpr(gradeOrderExpr() + " ASC, created_at ASC")
	} else {
		q = q.Order("created_at ASC")
	}

	if err := q.Scan(context.Background()); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

// gradeOrderExpr builds the CASE ordering from the grade enumeration.
// Grade keys are internal constants, never user input.
func gradeOrderExpr() string {
	var b strings.Builder
	b.WriteString("CASE viewer_grade")
	for _, g := range models.GradeOptions {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", g.Key, g.Priority)
	}
	fmt.Fprintf(&b, " ELSE %d END", models.UnknownGradePriority)
	return b.String()
}

// SetConfirmed updates the confirmed flag on one row. Updating a missing id
// affects zero rows and returns no error.
func (d *DB) SetConfirmed(id int64, confirmed bool) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Application)(nil)).
		Set("confirmed = ?", confirmed).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

func (d *DB) SetComment(id int64, comment string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.Application)(nil)).
		Set("comment = ?", comment).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

func (d *DB) DeleteApplication(id int64) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Application)(nil)).
		Where("id = ?", id).
		Exec(context.Background())
	return err
}

// DeleteApplicationsForDay removes every row for (day, raid), leaving other
// raids and other days untouched.
func (d *DB) DeleteApplicationsForDay(day, raid string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Application)(nil)).
		Where("date_local = ?", day).
		Where("raid_key = ?", raid).
		Exec(context.Background())
	return err
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	// Postgres dialect registration.
	_ "github.com/jinzhu/gorm/dialects/postgres"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/domain/model"
)

// GormStore is the Postgres-backed Store. Transactions run at serializable
// isolation; serialization failures and deadlocks surface as ErrConflict so
// the service layer can retry them.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens a Postgres connection and migrates the schema.
func NewGormStore(databaseURL string) (*GormStore, error) {
	db, err := gorm.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.LogMode(false)

	if err := db.AutoMigrate(
		&model.Problem{},
		&model.Submission{},
		&model.Statistics{},
		&model.Activity{},
		&model.Tag{},
	).Error; err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// InTx runs fn inside a serializable transaction scoped to owner.
func (g *GormStore) InTx(ctx context.Context, owner string, fn func(tx Tx) error) error {
	tx := g.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if tx.Error != nil {
		return mapError(tx.Error)
	}

	if err := fn(&gormTx{db: tx, owner: owner}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return mapError(err)
	}
	return nil
}

// Close releases the database connection.
func (g *GormStore) Close() error {
	return g.db.Close()
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"40001", "40p01", "could not serialize", "deadlock"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %s", ErrConflict, msg)
		}
	}
	return err
}

// gormTx implements Tx over an open gorm transaction.
type gormTx struct {
	db    *gorm.DB
	owner string
}

func (t *gormTx) ProblemByPlatformID(platformID string) (model.Problem, error) {
	var p model.Problem
	err := t.db.Preload("Tags").
		Where("owner = ? AND platform_id = ?", t.owner, platformID).
		First(&p).Error
	if err != nil {
		return model.Problem{}, mapError(err)
	}
	return p, nil
}

func (t *gormTx) CreateProblem(p model.Problem) (model.Problem, error) {
	p.Owner = t.owner
	if err := t.db.Create(&p).Error; err != nil {
		return model.Problem{}, mapError(err)
	}
	return p, nil
}

func (t *gormTx) SaveProblem(p model.Problem) error {
	p.Owner = t.owner
	return mapError(t.db.Save(&p).Error)
}

func (t *gormTx) DeleteProblem(platformID string) error {
	var p model.Problem
	err := t.db.Where("owner = ? AND platform_id = ?", t.owner, platformID).First(&p).Error
	if err != nil {
		return mapError(err)
	}
	if err := t.db.Where("owner = ? AND problem_id = ?", t.owner, p.ID).
		Delete(&model.Submission{}).Error; err != nil {
		return mapError(err)
	}
	return mapError(t.db.Delete(&p).Error)
}

func (t *gormTx) SubmissionByExternalID(problemID uint, externalID string) (model.Submission, error) {
	var s model.Submission
	err := t.db.Where("owner = ? AND problem_id = ? AND external_id = ?",
		t.owner, problemID, externalID).First(&s).Error
	if err != nil {
		return model.Submission{}, mapError(err)
	}
	return s, nil
}

func (t *gormTx) FindSubmissionLoose(problemID uint, code, status, language string) (model.Submission, error) {
	var s model.Submission
	err := t.db.Where("owner = ? AND problem_id = ? AND code = ? AND status = ? AND language = ?",
		t.owner, problemID, code, status, language).First(&s).Error
	if err != nil {
		return model.Submission{}, mapError(err)
	}
	return s, nil
}

func (t *gormTx) CreateSubmission(s model.Submission) (model.Submission, error) {
	s.Owner = t.owner
	if err := t.db.Create(&s).Error; err != nil {
		return model.Submission{}, mapError(err)
	}
	return s, nil
}

func (t *gormTx) Statistics() (model.Statistics, error) {
	var s model.Statistics
	err := t.db.Where("owner = ?", t.owner).First(&s).Error
	if gorm.IsRecordNotFoundError(err) {
		s = model.Statistics{Owner: t.owner}
		if err := t.db.Create(&s).Error; err != nil {
			return model.Statistics{}, mapError(err)
		}
		return s, nil
	}
	if err != nil {
		return model.Statistics{}, mapError(err)
	}
	return s, nil
}

func (t *gormTx) SaveStatistics(s model.Statistics) error {
	s.Owner = t.owner
	return mapError(t.db.Save(&s).Error)
}

func (t *gormTx) ActivityOn(date time.Time) (model.Activity, error) {
	day := date.Truncate(24 * time.Hour)
	var a model.Activity
	err := t.db.Where("owner = ? AND date = ?", t.owner, day).First(&a).Error
	if gorm.IsRecordNotFoundError(err) {
		a = model.Activity{Owner: t.owner, Date: day}
		if err := t.db.Create(&a).Error; err != nil {
			return model.Activity{}, mapError(err)
		}
		return a, nil
	}
	if err != nil {
		return model.Activity{}, mapError(err)
	}
	return a, nil
}

func (t *gormTx) SaveActivity(a model.Activity) error {
	a.Owner = t.owner
	return mapError(t.db.Save(&a).Error)
}

func (t *gormTx) EnsureTags(names []string) ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(names))
	for _, name := range names {
		var tag model.Tag
		err := t.db.Where(model.Tag{Owner: t.owner, Name: name}).
			FirstOrCreate(&tag).Error
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, tag)
	}
	return out, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/repository/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresScriptRepository struct {
	db *gorm.DB
}

func NewPostgresScriptRepository(db *gorm.DB) *PostgresScriptRepository {
	return &PostgresScriptRepository{db: db}
}

func (r *PostgresScriptRepository) Create(ctx context.Context, script *domain.Script) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if script == nil {
		return errors.New("script is nil")
	}

	m := toModelScript(script)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		if len(m.Stages) > 0 {
			if err := tx.Create(&m.Stages).Error; err != nil {
				return err
			}
		}
		if len(m.Characters) > 0 {
			if err := tx.Create(&m.Characters).Error; err != nil {
				return err
			}
		}
		if len(m.Goals) > 0 {
			if err := tx.Create(&m.Goals).Error; err != nil {
				return err
			}
		}
		if len(m.Clues) > 0 {
			if err := tx.Create(&m.Clues).Error; err != nil {
				return err
			}
		}
		if len(m.Timeline) > 0 {
			if err := tx.Create(&m.Timeline).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresScriptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m model.Script
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("number ASC") }).
		Preload("Characters").
		Preload("Goals").
		Preload("Clues").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScriptNotFound
		}
		return nil, err
	}
	return toDomainScript(&m), nil
}

func (r *PostgresScriptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Script{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrScriptNotFound
	}
	return nil
}

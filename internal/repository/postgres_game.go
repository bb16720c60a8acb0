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

type PostgresGameRepository struct {
	db *gorm.DB
}

func NewPostgresGameRepository(db *gorm.DB) *PostgresGameRepository {
	return &PostgresGameRepository{db: db}
}

func (r *PostgresGameRepository) RecordSearch(ctx context.Context, action *domain.SearchAction, goalID uuid.UUID, entry *domain.LogEntry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if action == nil {
		return 0, errors.New("search action is nil")
	}

	var remaining int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.CharacterGoal{}).
			Where("id = ? AND search_attempts > 0", goalID).
			UpdateColumn("search_attempts", gorm.Expr("search_attempts - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoSearchAttempts
		}

		if err := tx.Create(toModelSearch(action)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySearched
			}
			return err
		}

		if entry != nil {
			if err := tx.Create(toModelLog(entry)).Error; err != nil {
				return err
			}
		}

		var goal model.CharacterGoal
		if err := tx.Select("search_attempts").First(&goal, "id = ?", goalID).Error; err != nil {
			return err
		}
		remaining = goal.SearchAttempts
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *PostgresGameRepository) ListSearches(ctx context.Context, roomID uuid.UUID) ([]*domain.SearchAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.SearchAction
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.SearchAction, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainSearch(&rows[i]))
	}
	return result, nil
}

func (r *PostgresGameRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if vote == nil {
		return errors.New("vote is nil")
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "voter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"target_id", "stage", "cast_at"}),
	}).Create(toModelVote(vote)).Error
}

func (r *PostgresGameRepository) ClearVotes(ctx context.Context, roomID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.Vote{}, "room_id = ?", roomID).Error
}

func (r *PostgresGameRepository) ListVotes(ctx context.Context, roomID uuid.UUID) ([]*domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Vote
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("cast_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Vote, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainVote(&rows[i]))
	}
	return result, nil
}

func (r *PostgresGameRepository) AppendLog(ctx context.Context, entry *domain.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry == nil {
		return errors.New("log entry is nil")
	}
	return r.db.WithContext(ctx).Create(toModelLog(entry)).Error
}

func (r *PostgresGameRepository) ListLogs(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []model.GameLog
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.LogEntry, len(rows))
	for i := range rows {
		result[len(rows)-1-i] = toDomainLog(&rows[i])
	}
	return result, nil
}

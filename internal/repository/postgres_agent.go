package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/repository/model"
	"gorm.io/gorm"
)

type PostgresAgentRepository struct {
	db *gorm.DB
}

func NewPostgresAgentRepository(db *gorm.DB) *PostgresAgentRepository {
	return &PostgresAgentRepository{db: db}
}

func (r *PostgresAgentRepository) CreateProfile(ctx context.Context, profile *domain.AgentProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil {
		return errors.New("profile is nil")
	}
	return r.db.WithContext(ctx).Create(toModelProfile(profile)).Error
}

func (r *PostgresAgentRepository) GetProfile(ctx context.Context, id uuid.UUID) (*domain.AgentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p model.AgentProfile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return toDomainProfile(&p), nil
}

func (r *PostgresAgentRepository) ListProfiles(ctx context.Context) ([]*domain.AgentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.AgentProfile
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.AgentProfile, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainProfile(&rows[i]))
	}
	return result, nil
}

func (r *PostgresAgentRepository) RecordInteraction(ctx context.Context, in *domain.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if in == nil {
		return errors.New("interaction is nil")
	}

	m, err := toModelInteraction(in)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *PostgresAgentRepository) LastInteraction(ctx context.Context, roomID, agentID uuid.UUID) (*domain.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m model.AgentInteraction
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND agent_id = ?", roomID, agentID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInteractionNotFound
		}
		return nil, err
	}
	return toDomainInteraction(&m)
}

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/repository/model"
	"gorm.io/gorm"
)

type PostgresRoomRepository struct {
	db *gorm.DB
}

func NewPostgresRoomRepository(db *gorm.DB) *PostgresRoomRepository {
	return &PostgresRoomRepository{db: db}
}

func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	roomModel, err := toModelRoom(room)
	if err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Omit("Participants", "Searches", "Votes", "Logs", "Interactions").Create(roomModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoomCodeExists
		}
		return err
	}
	return nil
}

func (r *PostgresRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *PostgresRoomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	return r.first(ctx, "code = ?", code)
}

func (r *PostgresRoomRepository) first(ctx context.Context, query string, arg any) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var room model.Room
	if err := r.db.WithContext(ctx).First(&room, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	return toDomainRoom(&room)
}

func (r *PostgresRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	roomModel, err := toModelRoom(room)
	if err != nil {
		return err
	}

	updates := map[string]any{
		"name":          roomModel.Name,
		"password":      roomModel.Password,
		"capacity":      roomModel.Capacity,
		"phase":         roomModel.Phase,
		"host_id":       roomModel.HostID,
		"script_id":     roomModel.ScriptID,
		"current_stage": roomModel.CurrentStage,
		"settings":      roomModel.Settings,
		"updated_at":    roomModel.UpdatedAt,
		"started_at":    roomModel.StartedAt,
		"finished_at":   roomModel.FinishedAt,
	}

	res := r.db.WithContext(ctx).Model(&model.Room{}).Where("id = ?", roomModel.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Room{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) List(ctx context.Context, phases ...domain.Phase) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Order("created_at DESC")
	if len(phases) > 0 {
		names := make([]string, 0, len(phases))
		for _, p := range phases {
			names = append(names, string(p))
		}
		q = q.Where("phase IN ?", names)
	}

	var rooms []model.Room
	if err := q.Find(&rooms).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Room, 0, len(rooms))
	for i := range rooms {
		room, err := toDomainRoom(&rooms[i])
		if err != nil {
			return nil, err
		}
		result = append(result, room)
	}
	return result, nil
}

func (r *PostgresRoomRepository) AddParticipant(ctx context.Context, p *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(toModelParticipant(p)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrParticipantExists
		}
		return err
	}
	return nil
}

func (r *PostgresRoomRepository) UpdateParticipant(ctx context.Context, p *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := toModelParticipant(p)
	res := r.db.WithContext(ctx).Model(&model.Participant{}).
		Where("room_id = ? AND user_id = ?", m.RoomID, m.UserID).
		Updates(map[string]any{
			"nickname":     m.Nickname,
			"character_id": m.CharacterID,
			"ready":        m.Ready,
			"alive":        m.Alive,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrCharacterTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.Participant{}, "room_id = ? AND user_id = ?", roomID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

func (r *PostgresRoomRepository) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var p model.Participant
	err := r.db.WithContext(ctx).First(&p, "room_id = ? AND user_id = ?", roomID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return toDomainParticipant(&p), nil
}

func (r *PostgresRoomRepository) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Participant
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Order("joined_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.Participant, 0, len(rows))
	for i := range rows {
		result = append(result, toDomainParticipant(&rows[i]))
	}
	return result, nil
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}
	return r.db.WithContext(ctx).Create(toModelUser(user)).Error
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toDomainUser(&user), nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	m := toModelUser(user)
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", m.ID).Updates(map[string]any{
		"nickname":   m.Nickname,
		"is_guest":   m.IsGuest,
		"updated_at": m.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

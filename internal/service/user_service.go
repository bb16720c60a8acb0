package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/repository"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

const maxNicknameLength = 32

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	log    *slog.Logger
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, log *slog.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, log: log}
}

// CreateUser stores a user and returns it with a signed identity token.
func (s *UserService) CreateUser(ctx context.Context, nickname string, guest bool) (*domain.User, string, error) {
	const op = "service.user.create"
	log := s.log.With(slog.String("op", op))

	nickname, err := cleanNickname(nickname)
	if err != nil {
		return nil, "", err
	}
	user := domain.NewUser(nickname)
	if guest {
		user = domain.NewGuestUser(nickname)
	}
	if err := s.users.Create(ctx, user); err != nil {
		log.Error("failed to create user", sl.Err(err))
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return nil, "", err
	}
	log.Info("user created", slog.String("user_id", user.ID.String()), slog.Bool("guest", guest))
	return user, token, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, nickname string) (*domain.User, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Nickname = nickname
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func cleanNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", fmt.Errorf("%w: nickname is required", domain.ErrInvalidPayload)
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return "", fmt.Errorf("%w: nickname longer than %d", domain.ErrInvalidPayload, maxNicknameLength)
	}
	return nickname, nil
}

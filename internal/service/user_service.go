package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/model"
	"github.com/studbot/timetable_bot/internal/repository"
)

type UserService struct {
	userRepo      *repository.UserRepository
	directionRepo *repository.DirectionRepository
	logger        *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, directionRepo *repository.DirectionRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo:      userRepo,
		directionRepo: directionRepo,
		logger:        logger,
	}
}

// Register регистрирует нового пользователя или обновляет профиль
// существующего. Смена направления действует со следующей рассылки.
func (s *UserService) Register(ctx context.Context, telegramID int64, name string, course int, directionID int64, remindBefore bool) (*model.User, error) {
	direction, err := s.directionRepo.GetByID(ctx, directionID)
	if err != nil {
		return nil, fmt.Errorf("check direction: %w", err)
	}
	if direction == nil {
		return nil, fmt.Errorf("direction %d not found", directionID)
	}

	existing, err := s.userRepo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	if existing != nil {
		existing.Name = name
		existing.Course = course
		existing.DirectionID = directionID
		existing.RemindBefore = remindBefore

		if err := s.userRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}

		s.logger.Info("User updated",
			zap.Int64("telegram_id", telegramID),
			zap.Int64("direction_id", directionID),
		)

		return existing, nil
	}

	user := &model.User{
		TelegramID:   telegramID,
		Name:         name,
		Course:       course,
		DirectionID:  directionID,
		RemindBefore: remindBefore,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.Int64("telegram_id", telegramID),
		zap.Int64("direction_id", directionID),
	)

	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.userRepo.GetByTelegramID(ctx, telegramID)
}

// SetRemindBefore включает/выключает напоминания перед парами
func (s *UserService) SetRemindBefore(ctx context.Context, telegramID int64, enabled bool) error {
	if err := s.userRepo.SetRemindBefore(ctx, telegramID, enabled); err != nil {
		return err
	}

	s.logger.Info("Reminders toggled",
		zap.Int64("telegram_id", telegramID),
		zap.Bool("enabled", enabled),
	)

	return nil
}

// PauseFor приостанавливает рассылку на заданный срок
func (s *UserService) PauseFor(ctx context.Context, telegramID int64, d time.Duration) error {
	until := time.Now().Add(d)

	if err := s.userRepo.Pause(ctx, telegramID, &until, false); err != nil {
		return err
	}

	s.logger.Info("User paused",
		zap.Int64("telegram_id", telegramID),
		zap.Time("until", until),
	)

	return nil
}

// PauseIndefinitely приостанавливает рассылку без срока
func (s *UserService) PauseIndefinitely(ctx context.Context, telegramID int64) error {
	if err := s.userRepo.Pause(ctx, telegramID, nil, true); err != nil {
		return err
	}

	s.logger.Info("User paused indefinitely", zap.Int64("telegram_id", telegramID))

	return nil
}

// Resume возобновляет рассылку
func (s *UserService) Resume(ctx context.Context, telegramID int64) error {
	if err := s.userRepo.Resume(ctx, telegramID); err != nil {
		return err
	}

	s.logger.Info("User resumed", zap.Int64("telegram_id", telegramID))

	return nil
}

// UpdateDirection меняет курс и направление пользователя
func (s *UserService) UpdateDirection(ctx context.Context, telegramID int64, course int, directionID int64) error {
	direction, err := s.directionRepo.GetByID(ctx, directionID)
	if err != nil {
		return fmt.Errorf("check direction: %w", err)
	}
	if direction == nil {
		return fmt.Errorf("direction %d not found", directionID)
	}

	if err := s.userRepo.UpdateDirection(ctx, telegramID, course, directionID); err != nil {
		return err
	}

	s.logger.Info("User direction updated",
		zap.Int64("telegram_id", telegramID),
		zap.Int("course", course),
		zap.Int64("direction_id", directionID),
	)

	return nil
}

// GetDirections получает направления для выбора при регистрации
func (s *UserService) GetDirections(ctx context.Context, course int) ([]model.Direction, error) {
	return s.directionRepo.GetByCourse(ctx, course)
}

package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/devpath-io/devpath-service/internal/mailer"
	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/validator"
	"github.com/redis/go-redis/v9"
)

const otpTTL = 10 * time.Minute

type userService struct {
	repo      repositories.Repository
	redis     *redis.Client
	mailer    mailer.Client
	notifier  NotificationService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, redisClient *redis.Client, mailClient mailer.Client, notifier NotificationService, logger *slog.Logger, v *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		redis:     redisClient,
		mailer:    mailClient,
		notifier:  notifier,
		logger:    logger,
		validator: v,
	}
}

// ===== PROFILE =====

// GetProfile returns the local profile row, seeding it from the identity
// provider on first contact.
func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	profile, err := s.repo.Profile().GetByID(ctx, nil, userID)
	if err == nil {
		return profile, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	identity, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if err := s.repo.Profile().Upsert(ctx, nil, identity); err != nil {
		return nil, fmt.Errorf("failed to seed profile: %w", err)
	}

	s.logger.Info("Profile seeded from identity provider", "user_id", userID)
	return identity, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Course != nil {
		profile.Course = *req.Course
	}
	if req.YearLevel != nil {
		profile.YearLevel = *req.YearLevel
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}

	if err := s.repo.Profile().Update(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return profile, nil
}

// ===== EMAIL VERIFICATION =====

func (s *userService) RequestEmailVerification(ctx context.Context, userID string) error {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if profile.EmailVerified {
		return nil
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.redis.Set(ctx, otpKey(userID), otp, otpTTL).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, profile.Email, otp, firstName(profile.FullName)); err != nil {
		return fmt.Errorf("failed to send verification mail: %w", err)
	}

	s.logger.Info("Verification code sent", "user_id", userID)
	return nil
}

func (s *userService) VerifyEmail(ctx context.Context, userID string, req *VerifyEmailRequest) error {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return fmt.Errorf("%w: %s", ErrValidationFailed, errs.Error())
	}

	stored, err := s.redis.Get(ctx, otpKey(userID)).Result()
	if err == redis.Nil {
		return ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("failed to read verification code: %w", err)
	}
	if stored != req.OTP {
		return ErrInvalidOTP
	}

	if err := s.repo.Profile().SetEmailVerified(ctx, nil, userID, true); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	// The code is single-use.
	if err := s.redis.Del(ctx, otpKey(userID)).Err(); err != nil {
		s.logger.Warn("Failed to clear verification code", "user_id", userID, "error", err)
	}

	if s.notifier != nil {
		if profile, err := s.repo.Profile().GetByID(ctx, nil, userID); err == nil {
			if err := s.notifier.EmailVerified(ctx, profile); err != nil {
				s.logger.Warn("Failed to publish verification event", "user_id", userID, "error", err)
			}
		}
	}

	s.logger.Info("Email verified", "user_id", userID)
	return nil
}

// ===== HELPERS =====

func otpKey(userID string) string {
	return fmt.Sprintf("otp:%s", userID)
}

func generateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/userauth/internal/models"
)

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) findUser(ctx context.Context, query string, args ...interface{}) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *GormStore) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findUser(ctx, "email = ? AND is_deleted = ?", email, false)
}

func (s *GormStore) FindUserByNumber(ctx context.Context, number string) (models.User, error) {
	return s.findUser(ctx, "number = ? AND is_deleted = ?", number, false)
}

func (s *GormStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *GormStore) SaveUser(ctx context.Context, user models.User) error {
	if user.ID == uuid.Nil {
		return errors.New("save user: missing id")
	}
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *GormStore) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (bool, error) {
	if token == "" || token == models.ConsumedTempToken {
		return false, nil
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("temp_token = ? AND verified = ? AND is_deleted = ?", token, false, false).
		Updates(map[string]interface{}{
			"temp_token": models.ConsumedTempToken,
			"verified":   true,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume verification token: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CreateChallenge(ctx context.Context, challenge models.OTPChallenge) (models.OTPChallenge, error) {
	if err := s.db.WithContext(ctx).Create(&challenge).Error; err != nil {
		return models.OTPChallenge{}, fmt.Errorf("create otp challenge: %w", err)
	}
	return challenge, nil
}

func scoped(db *gorm.DB, scope ChallengeScope) *gorm.DB {
	if scope.Number != "" {
		return db.Where("number = ?", scope.Number)
	}
	return db.Where("user_id = ?", scope.UserID)
}

func (s *GormStore) FindLatestChallenge(ctx context.Context, scope ChallengeScope) (models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	q := scoped(s.db.WithContext(ctx), scope).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("created_at desc")
	if err := q.First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.OTPChallenge{}, ErrNotFound
		}
		return models.OTPChallenge{}, fmt.Errorf("find latest otp challenge: %w", err)
	}
	return challenge, nil
}

func (s *GormStore) RedeemChallenge(ctx context.Context, challenge models.OTPChallenge, scope ChallengeScope, now time.Time) (bool, error) {
	db := s.db.WithContext(ctx)
	newer := scoped(db.Session(&gorm.Session{NewDB: true}).Model(&models.OTPChallenge{}).Select("1"), scope).
		Where("created_at > ?", challenge.CreatedAt)

	res := db.Model(&models.OTPChallenge{}).
		Where("id = ? AND is_redeemed = ?", challenge.ID, false).
		Where("NOT EXISTS (?)", newer).
		Updates(map[string]interface{}{
			"is_redeemed": true,
			"updated_at":  now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("redeem otp challenge: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

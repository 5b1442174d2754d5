package store

import (
	"context"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	err := s.conn(ctx).Create(user).Error
	return writeErr(err, "user_id is already taken", "creating user %s", user.LoginID)
}

func (s *Store) UserByID(ctx context.Context, id string) (types.User, error) {
	var user types.User
	err := s.conn(ctx).Preload("PushSubscriptions").First(&user, "id = ?", id).Error
	return user, readErr(err, "user")
}

func (s *Store) UserByLoginID(ctx context.Context, loginID string) (types.User, error) {
	var user types.User
	err := s.conn(ctx).First(&user, "login_id = ?", loginID).Error
	return user, readErr(err, "user")
}

func (s *Store) LoginIDExists(ctx context.Context, loginID string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&types.User{}).Where("login_id = ?", loginID).Count(&count).Error
	if err != nil {
		return false, apperr.Persistence(err, "checking user_id")
	}
	return count > 0, nil
}

// Withdraw deletes the user and everything the user owns. Either every row
// goes or none does.
func (s *Store) Withdraw(ctx context.Context, userID string) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&types.PositiveAnswer{}).Error; err != nil {
			return errors.Wrap(err, "deleting positive answers")
		}
		if err := tx.Where("user_id = ?", userID).Delete(&types.Diary{}).Error; err != nil {
			return errors.Wrap(err, "deleting diaries")
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&types.PushSubscription{}).Error; err != nil {
			return errors.Wrap(err, "deleting push subscriptions")
		}
		res := tx.Delete(&types.User{}, "id = ?", userID)
		if res.Error != nil {
			return errors.Wrap(res.Error, "deleting user")
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Persistence(err, "withdrawing user")
	}
	logWithUser(userID).Info("User withdrew")
	return nil
}

package store

import (
	"context"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/types"
)

// SaveSubscription stores sub, replacing any earlier one for the same endpoint.
func (s *Store) SaveSubscription(ctx context.Context, sub *types.PushSubscription) error {
	err := s.conn(ctx).Unscoped().
		Where("user_id = ? AND endpoint = ?", sub.UserID, sub.Endpoint).
		Delete(&types.PushSubscription{}).Error
	if err != nil {
		return apperr.Persistence(err, "replacing subscription")
	}
	if err := s.conn(ctx).Create(sub).Error; err != nil {
		return apperr.Persistence(err, "saving subscription")
	}
	return nil
}

func (s *Store) RemoveSubscriptions(ctx context.Context, userID string) error {
	err := s.conn(ctx).Unscoped().Where("user_id = ?", userID).Delete(&types.PushSubscription{}).Error
	if err != nil {
		return apperr.Persistence(err, "removing subscriptions")
	}
	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id uint) error {
	err := s.conn(ctx).Unscoped().Delete(&types.PushSubscription{}, id).Error
	if err != nil {
		return apperr.Persistence(err, "deleting subscription %d", id)
	}
	return nil
}

func (s *Store) UsersWithSubscriptions(ctx context.Context) ([]types.User, error) {
	var users []types.User
	err := s.conn(ctx).Preload("PushSubscriptions").
		Where("id IN (?)", s.conn(ctx).Model(&types.PushSubscription{}).Select("user_id")).
		Find(&users).Error
	if err != nil {
		return nil, apperr.Persistence(err, "getting all users")
	}
	return users, nil
}

package store

import (
	"context"
	"time"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/types"
)

const duplicateDiary = "a diary already exists for this date"

// DiaryOn reports whether the user already has an entry for day.
func (s *Store) DiaryOn(ctx context.Context, userID string, day time.Time) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&types.Diary{}).
		Where("user_id = ? AND entry_date = ?", userID, types.DayOf(day)).
		Count(&count).Error
	if err != nil {
		return false, apperr.Persistence(err, "checking diary date")
	}
	return count > 0, nil
}

func (s *Store) CreateDiary(ctx context.Context, diary *types.Diary) error {
	diary.EntryDate = types.DayOf(diary.EntryDate)
	err := s.conn(ctx).Create(diary).Error
	return writeErr(err, duplicateDiary, "saving diary")
}

// DiaryForUser loads an entry only if userID owns it.
func (s *Store) DiaryForUser(ctx context.Context, userID, id string) (types.Diary, error) {
	var diary types.Diary
	err := s.conn(ctx).First(&diary, "id = ? AND user_id = ?", id, userID).Error
	return diary, readErr(err, "diary")
}

func (s *Store) UpdateDiary(ctx context.Context, diary *types.Diary) error {
	err := s.conn(ctx).Save(diary).Error
	return writeErr(err, duplicateDiary, "updating diary %s", diary.ID)
}

func (s *Store) DeleteDiary(ctx context.Context, userID, id string) (types.Diary, error) {
	diary, err := s.DiaryForUser(ctx, userID, id)
	if err != nil {
		return diary, err
	}
	if err := s.conn(ctx).Delete(&diary).Error; err != nil {
		return diary, apperr.Persistence(err, "deleting diary %s", id)
	}
	return diary, nil
}

// DiariesBetween lists entries dated from..to inclusive, oldest first.
func (s *Store) DiariesBetween(ctx context.Context, userID string, from, to time.Time) ([]types.Diary, error) {
	ret := []types.Diary{}
	err := s.conn(ctx).
		Where("user_id = ? AND entry_date >= ? AND entry_date <= ?", userID, types.DayOf(from), types.DayOf(to)).
		Order("entry_date ASC").
		Find(&ret).Error
	if err != nil {
		return nil, apperr.Persistence(err, "listing diaries")
	}
	return ret, nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageDelta is what one planner call adds to a key's daily totals
type UsageDelta struct {
	Assignments int
	Members     int
	Conflicts   int
}

// Today is the usage bucket for the current UTC day
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}

// CountRequest adds one request to today's bucket of a key and returns the new count.
// Every authenticated planner request is counted, whatever its outcome.
func CountRequest(ctx context.Context, db *gorm.DB, keyID uint) (int, error) {
	var n int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"request_count": gorm.Expr("request_count + ?", 1),
			}),
		}).Create(&APIUsage{KeyID: keyID, Date: Today(), RequestCount: 1}).Error
		if err != nil {
			return err
		}
		var usage APIUsage
		if err := tx.Where("key_id = ? AND date = ?", keyID, Today()).First(&usage).Error; err != nil {
			return err
		}
		n = usage.RequestCount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count request for key %d: %w", keyID, err)
	}
	return n, nil
}

// RecordUsage adds the totals of one planner call to today's bucket (supported by both Postgres and SQLite).
// The request itself is counted by CountRequest.
func RecordUsage(ctx context.Context, db *gorm.DB, keyID uint, d UsageDelta) error {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_assignments": gorm.Expr("total_assignments + ?", d.Assignments),
			"total_members":     gorm.Expr("total_members + ?", d.Members),
			"total_conflicts":   gorm.Expr("total_conflicts + ?", d.Conflicts),
		}),
	}).Create(&APIUsage{
		KeyID:            keyID,
		Date:             Today(),
		TotalAssignments: d.Assignments,
		TotalMembers:     d.Members,
		TotalConflicts:   d.Conflicts,
	}).Error
	if err != nil {
		return fmt.Errorf("record usage for key %d: %w", keyID, err)
	}
	return nil
}

// RecentUsage returns up to the last 30 usage days of a key, newest first
func RecentUsage(ctx context.Context, db *gorm.DB, keyID uint) ([]APIUsage, error) {
	var usage []APIUsage
	if err := db.WithContext(ctx).Where("key_id = ?", keyID).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		return nil, fmt.Errorf("load usage for key %d: %w", keyID, err)
	}
	return usage, nil
}

// RequestsToday returns how many requests a key has made in the current day
func RequestsToday(ctx context.Context, db *gorm.DB, keyID uint) (int, error) {
	var usage APIUsage
	err := db.WithContext(ctx).Where("key_id = ? AND date = ?", keyID, Today()).Limit(1).Find(&usage).Error
	if err != nil {
		return 0, fmt.Errorf("load today's usage for key %d: %w", keyID, err)
	}
	return usage.RequestCount, nil
}

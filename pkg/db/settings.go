// pkg/db/settings.go
package db

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SettingTimeWindowStart = "time_window_start"
	SettingTimeWindowEnd   = "time_window_end"
	SettingLastSentDate    = "last_sent_date"
)

const (
	DefaultWindowStart = 8
	DefaultWindowEnd   = 20
)

// GetSetting returns the stored value, or fallback when the key is absent.
func GetSetting(gdb *gorm.DB, key, fallback string) (string, error) {
	var s Setting
	err := gdb.Where("key = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	return s.Value, nil
}

func SetSetting(gdb *gorm.DB, key, value string) error {
	return gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

func AllSettings(gdb *gorm.DB) (map[string]string, error) {
	var rows []Setting
	if err := gdb.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// TimeWindow reads the send window bounds, falling back to 8..20 on missing
// or unparseable values. The bounds are not validated against each other
// here; the scheduler rejects an empty window itself.
func TimeWindow(gdb *gorm.DB) (start, end int, err error) {
	start, err = settingInt(gdb, SettingTimeWindowStart, DefaultWindowStart)
	if err != nil {
		return 0, 0, err
	}
	end, err = settingInt(gdb, SettingTimeWindowEnd, DefaultWindowEnd)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func settingInt(gdb *gorm.DB, key string, fallback int) (int, error) {
	raw, err := GetSetting(gdb, key, strconv.Itoa(fallback))
	if err != nil {
		return fallback, err
	}
	value, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return fallback, nil
	}
	return value, nil
}

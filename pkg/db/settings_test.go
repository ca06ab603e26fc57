package db_test

import (
	"testing"

	"dailyquote/pkg/db"
	"dailyquote/pkg/internal/testutil"
)

func TestSeededDefaults(t *testing.T) {
	testutil.SetupTestDB(t)

	start, end, err := db.TimeWindow(db.DB)
	if err != nil {
		t.Fatalf("TimeWindow failed: %v", err)
	}
	if start != 8 || end != 20 {
		t.Fatalf("expected default window 8..20, got %d..%d", start, end)
	}

	last, err := db.GetSetting(db.DB, db.SettingLastSentDate, "missing")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if last != "" {
		t.Fatalf("expected seeded empty last_sent_date, got %q", last)
	}
}

func TestSetSettingUpserts(t *testing.T) {
	testutil.SetupTestDB(t)

	if err := db.SetSetting(db.DB, "custom_key", "one"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := db.SetSetting(db.DB, "custom_key", "two"); err != nil {
		t.Fatalf("second SetSetting failed: %v", err)
	}

	value, err := db.GetSetting(db.DB, "custom_key", "")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "two" {
		t.Fatalf("expected upserted value, got %q", value)
	}
}

func TestTimeWindowFallsBackOnJunk(t *testing.T) {
	testutil.SetupTestDB(t)

	if err := db.SetSetting(db.DB, db.SettingTimeWindowStart, "not-a-number"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	start, end, err := db.TimeWindow(db.DB)
	if err != nil {
		t.Fatalf("TimeWindow failed: %v", err)
	}
	if start != 8 || end != 20 {
		t.Fatalf("expected fallback window 8..20, got %d..%d", start, end)
	}
}

func TestGetSettingFallback(t *testing.T) {
	testutil.SetupTestDB(t)

	value, err := db.GetSetting(db.DB, "nope", "fallback")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "fallback" {
		t.Fatalf("expected fallback, got %q", value)
	}
}

func TestAllSettingsIncludesSeeds(t *testing.T) {
	testutil.SetupTestDB(t)

	settings, err := db.AllSettings(db.DB)
	if err != nil {
		t.Fatalf("AllSettings failed: %v", err)
	}
	for _, key := range []string{db.SettingTimeWindowStart, db.SettingTimeWindowEnd, db.SettingLastSentDate} {
		if _, ok := settings[key]; !ok {
			t.Fatalf("expected seeded key %q in %v", key, settings)
		}
	}
}

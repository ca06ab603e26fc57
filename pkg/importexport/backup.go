package importexport

import (
	"time"
	"unicode/utf8"

	"dailyquote/pkg/db"

	"gorm.io/gorm"
)

type BackupQuote struct {
	Text       string     `json:"text"`
	Author     string     `json:"author,omitempty"`
	AddedAt    time.Time  `json:"added_at"`
	TimesSent  int        `json:"times_sent"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
}

type Backup struct {
	BackupDate time.Time     `json:"backup_date"`
	Quotes     []BackupQuote `json:"quotes"`
	Count      int           `json:"count"`
}

func BuildBackup(gdb *gorm.DB, now time.Time) (Backup, error) {
	var quotes []db.Quote
	if err := gdb.Order("added_at ASC, id ASC").Find(&quotes).Error; err != nil {
		return Backup{}, err
	}

	out := Backup{BackupDate: now, Quotes: make([]BackupQuote, 0, len(quotes)), Count: len(quotes)}
	for _, q := range quotes {
		out.Quotes = append(out.Quotes, BackupQuote{
			Text:       q.Text,
			Author:     q.Author,
			AddedAt:    q.AddedAt,
			TimesSent:  q.TimesSent,
			LastSentAt: q.LastSentAt,
		})
	}
	return out, nil
}

// RestoreQuotes re-inserts backed-up quotes preserving their send counters.
// Rows without text are skipped. The caller rebuilds the rotation afterwards
// so restored quotes enter a fresh cycle.
func RestoreQuotes(gdb *gorm.DB, quotes []BackupQuote) (int, error) {
	imported := 0
	err := gdb.Transaction(func(tx *gorm.DB) error {
		for _, q := range quotes {
			if q.Text == "" || utf8.RuneCountInString(q.Text) > db.MaxQuoteLength {
				continue
			}
			addedAt := q.AddedAt
			if addedAt.IsZero() {
				addedAt = time.Now().UTC()
			}
			record := db.Quote{
				Text:       q.Text,
				Author:     q.Author,
				AddedAt:    addedAt,
				TimesSent:  q.TimesSent,
				LastSentAt: q.LastSentAt,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

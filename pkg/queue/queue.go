// Package queue implements the durable quote rotation: a persisted random
// permutation of the quote pool that hands out each quote exactly once per
// cycle and rebuilds itself with a fresh order when the pool is exhausted.
package queue

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"dailyquote/pkg/db"
	"dailyquote/pkg/logger"

	"gorm.io/gorm"
)

var ErrQuoteNotFound = errors.New("quote not found")

type Status struct {
	TotalQuotes        int64 `json:"totalQuotes"`
	SentThisCycle      int64 `json:"sentThisCycle"`
	RemainingThisCycle int64 `json:"remainingThisCycle"`
}

// Service serializes all rotation and day-claim mutations behind one mutex
// so there is never more than one rebuild or one unsent winner in flight.
type Service struct {
	mu sync.Mutex
	db *gorm.DB
}

func New(gdb *gorm.DB) *Service {
	return &Service{db: gdb}
}

// Next returns the lowest-position unsent quote of the current cycle. When
// the cycle is exhausted (or was never built) it rebuilds once and retries.
// Both return values are nil when the quote pool is empty.
func (s *Service) Next() (*db.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Service) nextLocked() (*db.Quote, error) {
	quote, err := s.lowestUnsent()
	if err != nil {
		return nil, err
	}
	if quote != nil {
		return quote, nil
	}

	if err := s.rebuildLocked(); err != nil {
		return nil, err
	}
	return s.lowestUnsent()
}

func (s *Service) lowestUnsent() (*db.Quote, error) {
	var quote db.Quote
	err := s.db.
		Joins("JOIN rotation_entries ON rotation_entries.quote_id = quotes.id").
		Where("rotation_entries.sent = ?", false).
		Order("rotation_entries.position ASC").
		First(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Rebuild replaces the whole rotation with a freshly shuffled one. The
// delete and the inserts run in a single transaction so a failure cannot
// leave a half-built cycle behind.
func (s *Service) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildLocked()
}

func (s *Service) rebuildLocked() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&db.RotationEntry{}).Error; err != nil {
			return err
		}

		var ids []uint
		if err := tx.Model(&db.Quote{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		rand.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})

		entries := make([]db.RotationEntry, 0, len(ids))
		for position, id := range ids {
			entries = append(entries, db.RotationEntry{QuoteID: id, Position: position})
		}
		return tx.Create(&entries).Error
	})
}

// MarkSent flips the current cycle's entry for the quote and bumps the send
// statistics. Calling it again for an already-sent entry is a no-op.
func (s *Service) MarkSent(quoteID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markSentLocked(quoteID)
}

func (s *Service) markSentLocked(quoteID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.RotationEntry{}).
			Where("quote_id = ? AND sent = ?", quoteID, false).
			Update("sent", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		now := time.Now().UTC()
		return tx.Model(&db.Quote{}).
			Where("id = ?", quoteID).
			Updates(map[string]interface{}{
				"times_sent":   gorm.Expr("times_sent + 1"),
				"last_sent_at": now,
			}).Error
	})
}

func (s *Service) Status() (Status, error) {
	var status Status
	if err := s.db.Model(&db.Quote{}).Count(&status.TotalQuotes).Error; err != nil {
		return Status{}, err
	}
	if err := s.db.Model(&db.RotationEntry{}).Where("sent = ?", true).Count(&status.SentThisCycle).Error; err != nil {
		return Status{}, err
	}
	if err := s.db.Model(&db.RotationEntry{}).Where("sent = ?", false).Count(&status.RemainingThisCycle).Error; err != nil {
		return Status{}, err
	}
	return status, nil
}

// CreateQuote inserts a quote and appends it to the current cycle at the
// next free position, leaving the rest of the cycle untouched. Insert and
// entry commit together, under the same lock as Rebuild, so a concurrent
// rebuild can never observe the quote without its entry or double it.
func (s *Service) CreateQuote(text, author string) (*db.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quote := db.Quote{Text: text, Author: author}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quote).Error; err != nil {
			return err
		}
		return appendEntry(tx, quote.ID)
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateQuotes is the batch form of CreateQuote. All inserts share one
// transaction so a failure mid-batch leaves nothing behind.
func (s *Service) CreateQuotes(quotes []db.Quote) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range quotes {
			if err := tx.Create(&quotes[i]).Error; err != nil {
				return err
			}
			if err := appendEntry(tx, quotes[i].ID); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func appendEntry(tx *gorm.DB, quoteID uint) error {
	var maxPosition *int
	if err := tx.Model(&db.RotationEntry{}).Select("MAX(position)").Scan(&maxPosition).Error; err != nil {
		return err
	}
	position := 0
	if maxPosition != nil {
		position = *maxPosition + 1
	}
	return tx.Create(&db.RotationEntry{QuoteID: quoteID, Position: position}).Error
}

// Remove deletes a quote and its rotation entry in one transaction.
func (s *Service) Remove(quoteID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&db.Quote{}, quoteID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrQuoteNotFound
		}
		return tx.Where("quote_id = ?", quoteID).Delete(&db.RotationEntry{}).Error
	})
}

// ClaimToday hands out at most one quote per calendar day to the external
// integration caller. A nil quote means the day is already claimed or the
// pool is empty.
func (s *Service) ClaimToday(now time.Time) (*db.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := now.Format("2006-01-02")
	var claim db.DayClaim
	err := s.db.Where("day = ?", day).First(&claim).Error
	if err == nil {
		logger.Debug("day already claimed", "day", day, "quote_id", claim.QuoteID)
		return nil, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	quote, err := s.nextLocked()
	if err != nil || quote == nil {
		return nil, err
	}

	if err := s.db.Create(&db.DayClaim{Day: day, QuoteID: quote.ID}).Error; err != nil {
		return nil, err
	}
	return quote, nil
}

// ConfirmSend is the integration caller acknowledging delivery of a quote
// previously handed out by ClaimToday.
func (s *Service) ConfirmSend(quoteID uint) error {
	return s.MarkSent(quoteID)
}

// Package scheduler runs the daily trigger: an hourly gate that decides,
// from the settings state and one random draw, whether this is the hour the
// day's quote goes out.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"dailyquote/pkg/db"
	"dailyquote/pkg/delivery"
	"dailyquote/pkg/logger"
	"dailyquote/pkg/queue"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	dateLayout             = "2006-01-02"
	defaultDeliveryTimeout = 10 * time.Second
)

type Scheduler struct {
	gdb     *gorm.DB
	queue   *queue.Service
	gateway delivery.Gateway
	engine  *cron.Cron

	// now and randFloat are swappable in tests.
	now             func() time.Time
	randFloat       func() float64
	deliveryTimeout time.Duration
}

func New(gdb *gorm.DB, q *queue.Service, gateway delivery.Gateway) *Scheduler {
	return &Scheduler{
		gdb:             gdb,
		queue:           q,
		gateway:         gateway,
		engine:          cron.New(cron.WithLocation(time.Local)),
		now:             time.Now,
		randFloat:       rand.Float64,
		deliveryTimeout: defaultDeliveryTimeout,
	}
}

// Start registers the top-of-hour check and starts the cron engine.
func (s *Scheduler) Start() error {
	_, err := s.engine.AddFunc("0 * * * *", func() {
		s.CheckAndSend(s.now())
	})
	if err != nil {
		return err
	}
	s.engine.Start()
	logger.Info("scheduler started, checking every hour")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.engine.Stop()
	<-ctx.Done()
	logger.Info("scheduler stopped")
}

// CheckAndSend runs one hourly evaluation. It never panics out into the
// cron loop; whatever happens, the next hour gets a fresh attempt.
func (s *Scheduler) CheckAndSend(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in hourly check", "panic", r)
		}
	}()

	today := now.Format(dateLayout)

	lastSent, err := db.GetSetting(s.gdb, db.SettingLastSentDate, "")
	if err != nil {
		logger.Error("failed to read last sent date", "error", err)
		return
	}
	if lastSent == today {
		logger.Debug("quote already sent today", "date", today)
		return
	}

	start, end, err := db.TimeWindow(s.gdb)
	if err != nil {
		logger.Error("failed to read time window", "error", err)
		return
	}
	if end <= start {
		logger.Error("misconfigured time window", "start", start, "end", end)
		return
	}

	hour := now.Hour()
	if hour < start || hour >= end {
		logger.Debug("outside time window", "hour", hour, "start", start, "end", end)
		return
	}

	// One Bernoulli trial per hour at rate 1/width gives, in expectation,
	// one send per day spread uniformly over the window.
	if s.randFloat() >= 1.0/float64(end-start) {
		logger.Debug("not sending this hour", "hour", hour)
		return
	}

	s.sendDailyQuote(now)
}

func (s *Scheduler) sendDailyQuote(now time.Time) {
	quote, err := s.queue.Next()
	if err != nil {
		logger.Error("failed to pick next quote", "error", err)
		return
	}
	if quote == nil {
		logger.Info("no quotes available to send")
		return
	}

	today := now.Format(dateLayout)

	if !s.gateway.IsConfigured() {
		// Soft skip: the quote and the day are still consumed so a later
		// configuration fix does not double-send today.
		logger.Info("delivery gateway not configured, marking quote sent anyway",
			"channel", s.gateway.Name(), "quote_id", quote.ID)
		s.markSent(quote.ID, today)
		return
	}

	message := delivery.FormatMessage(quote.Text, quote.Author)

	ctx, cancel := context.WithTimeout(context.Background(), s.deliveryTimeout)
	defer cancel()
	if err := s.gateway.Send(ctx, message); err != nil {
		// Transport failure: nothing is marked, the next hourly tick within
		// the window retries with the same quote.
		logger.Error("failed to deliver daily quote",
			"channel", s.gateway.Name(), "quote_id", quote.ID, "error", err)
		return
	}

	s.markSent(quote.ID, today)
	logger.Info("daily quote sent", "quote_id", quote.ID, "channel", s.gateway.Name())
}

func (s *Scheduler) markSent(quoteID uint, today string) {
	if err := s.queue.MarkSent(quoteID); err != nil {
		logger.Error("failed to mark quote sent", "quote_id", quoteID, "error", err)
	}
	if err := db.SetSetting(s.gdb, db.SettingLastSentDate, today); err != nil {
		logger.Error("failed to record last sent date", "error", err)
	}
}

// SendTest synchronously picks the next quote and attempts delivery,
// returning a human-readable result. Unlike the hourly path, an
// unconfigured gateway is a hard failure here, and the quote is not
// consumed.
func (s *Scheduler) SendTest(ctx context.Context) (string, error) {
	quote, err := s.queue.Next()
	if err != nil {
		return "", err
	}
	if quote == nil {
		return "", errors.New("no quotes available, add quotes first")
	}

	if !s.gateway.IsConfigured() {
		return "", fmt.Errorf("%w: channel %s has no credentials", delivery.ErrNotConfigured, s.gateway.Name())
	}

	message := "TEST: " + delivery.FormatMessage(quote.Text, quote.Author)

	sendCtx, cancel := context.WithTimeout(ctx, s.deliveryTimeout)
	defer cancel()
	if err := s.gateway.Send(sendCtx, message); err != nil {
		return "", err
	}

	return fmt.Sprintf("Sent test message via %s: %q", s.gateway.Name(), message), nil
}

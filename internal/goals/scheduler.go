package goals

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jdelaire/goalbot/internal/store"
)

// SendFunc delivers a text message to a chat.
type SendFunc func(ctx context.Context, chatID int64, text string) error

// Scheduler sends each linked chat its due goals once a day at a fixed
// local hour.
type Scheduler struct {
	service     *Service
	store       *store.Store
	send        SendFunc
	hour        int
	sendTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewScheduler(service *Service, s *store.Store, send SendFunc, hour int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if hour < 0 || hour > 23 {
		hour = 6
	}
	return &Scheduler{
		service:     service,
		store:       s,
		send:        send,
		hour:        hour,
		sendTimeout: 10 * time.Second,
		logger:      logger,
		now:         time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		wait := durationUntilNextHour(s.now(), s.hour)
		s.logger.Debug("next reminder scheduled", "in", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := s.RunTick(ctx); err != nil {
			s.logger.Error("goal reminder tick failed", "error", err)
		}
	}
}

// RunTick sends today's reminders. Chats already reminded today are
// skipped, and a failed send for one chat does not stop the others.
func (s *Scheduler) RunTick(ctx context.Context) error {
	today := s.now().In(time.Local).Format(dateLayout)

	linked := true
	chats, err := s.store.ListChats(ctx, &store.FindChat{Linked: &linked})
	if err != nil {
		return fmt.Errorf("list linked chats: %w", err)
	}

	for _, chat := range chats {
		due, err := s.service.DueGoals(ctx, *chat.AccountID, today)
		if err != nil {
			s.logger.Error("select due goals failed", "chat_id", chat.ChatID, "error", err)
			continue
		}
		if len(due) == 0 {
			continue
		}

		marked, err := s.store.MarkReminded(ctx, chat.ID, today)
		if err != nil {
			s.logger.Error("persist reminder mark failed", "chat_id", chat.ChatID, "error", err)
			continue
		}
		if !marked {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err = s.send(sendCtx, chat.ChatID, FormatReminderMessage(today, due))
		cancel()
		if err != nil {
			s.logger.Error("send reminder failed", "chat_id", chat.ChatID, "error", err)
			continue
		}
		s.logger.Info("reminder sent", "chat_id", chat.ChatID, "goals", len(due))
	}
	return nil
}

func durationUntilNextHour(now time.Time, hour int) time.Duration {
	localNow := now.In(time.Local)
	next := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), hour, 0, 0, 0, localNow.Location())
	if !localNow.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(localNow)
}

func FormatReminderMessage(today string, due []*store.Goal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goals due by %s\n", today)
	for _, g := range due {
		fmt.Fprintf(&b, "#%d %s (due %s)\n", g.ID, g.Title, *g.DueDate)
	}
	b.WriteString("Reply /goal <id> for details")
	return b.String()
}

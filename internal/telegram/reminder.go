package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/robfig/cron/v3"

	"github.com/kassa-bot/kassa/internal/common"
)

// Reminder sends a daily nudge to every linked user asking them to record
// the day's transactions.
type Reminder struct {
	bot  *Bot
	cron *cron.Cron
}

// NewReminder schedules the reminder at the given local time in tz
// (for example "17:00" in Europe/Moscow).
func NewReminder(b *Bot, tz string, at string) (*Reminder, error) {
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder timezone %q: %w", tz, err)
	}

	var hour, minute int
	if _, err := fmt.Sscanf(at, "%d:%d", &hour, &minute); err != nil {
		return nil, fmt.Errorf("invalid reminder time %q: %w", at, err)
	}

	c := cron.New(cron.WithLocation(location))
	r := &Reminder{bot: b, cron: c}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	if _, err := c.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("failed to schedule reminder: %w", err)
	}
	return r, nil
}

// Start begins firing scheduled reminders.
func (r *Reminder) Start() {
	r.cron.Start()
}

// Stop waits for any in-flight run to finish.
func (r *Reminder) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reminder) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := r.bot.store.GetLinkedUsers(ctx)
	if err != nil {
		common.LogError(err, "failed to load users for reminder", nil)
		return
	}

	sent := 0
	for _, user := range users {
		if !user.Linked() {
			continue
		}
		err := common.WithRetry(ctx, func() error {
			_, sendErr := r.bot.api.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    user.TelegramID,
				Text:      msgReminder,
				ParseMode: tgmodels.ParseModeHTML,
			})
			return sendErr
		}, common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})
		if err != nil {
			common.LogError(err, "failed to send reminder", common.Fields{"user_id": user.ID})
			continue
		}
		sent++
	}

	common.LogInfo("daily reminder sent", common.Fields{"users": sent, "total": len(users)})
}

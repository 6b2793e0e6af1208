package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/fixembed/fixembed-bot/internal/logger"
	"github.com/fixembed/fixembed-bot/internal/services"
)

func statuses() []string {
	names := services.Names()
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, fmt.Sprintf("for %s links", n))
	}
	return out
}

// rotatePresence cycles the "Watching ..." status every interval until ctx
// ends.
func (b *Bot) rotatePresence(ctx context.Context, interval time.Duration) {
	list := statuses()
	idx := 0
	b.setStatus(list[idx])
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idx = (idx + 1) % len(list)
			b.setStatus(list[idx])
		}
	}
}

func (b *Bot) setStatus(text string) {
	err := b.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{{Name: text, Type: discordgo.ActivityTypeWatching}},
	})
	if err != nil {
		b.log.Debug("update presence failed", logger.String("status", text), logger.Error(err))
	}
}

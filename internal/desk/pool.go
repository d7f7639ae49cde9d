package desk

import (
	"context"

	"orderdesk/internal/eventbus"
	"orderdesk/pkg/logx"
)

// AddBot creates a bot, starts its worker goroutine, and adds it to the
// active pool. Returns the new bot's id.
func (d *Desk) AddBot() (int64, error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return 0, ErrStopped
	}
	d.nextBotID++
	b := newBot(d.nextBotID, d)
	d.bots = append(d.bots, b)
	total := len(d.bots)
	d.mu.Unlock()

	go b.run()

	d.log.Info("bot added", logx.Int64("bot", b.id), logx.Int("pool", total))
	d.publish(eventbus.TopicBotAdded, BotEvent{ID: b.id, Total: total})
	return b.id, nil
}

// RemoveBot stops and removes the most-recently-added bot. If the bot is
// mid-service its order is requeued at the head of its tier; RemoveBot only
// returns after that requeue is visible.
func (d *Desk) RemoveBot() (int64, error) {
	d.mu.Lock()
	if len(d.bots) == 0 {
		d.mu.Unlock()
		return 0, ErrEmptyPool
	}
	last := len(d.bots) - 1
	b := d.bots[last]
	d.bots[last] = nil
	d.bots = d.bots[:last]
	total := len(d.bots)
	d.mu.Unlock()

	d.stopBot(b)

	d.log.Info("bot removed", logx.Int64("bot", b.id), logx.Int("pool", total))
	d.publish(eventbus.TopicBotRemoved, BotEvent{ID: b.id, Total: total})
	return b.id, nil
}

// stopBot signals the bot and joins its goroutine.
func (d *Desk) stopBot(b *Bot) {
	close(b.stopCh)
	// Broadcast under the mutex so a bot between its stop check and
	// cond.Wait cannot miss the wakeup.
	d.mu.Lock()
	d.cond.Broadcast()
	d.mu.Unlock()
	<-b.done
}

// Stop shuts the desk down: every bot is stopped and joined, in-flight
// orders return to their queue heads, and further operations fail with
// ErrStopped. Safe to call more than once.
func (d *Desk) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	bots := d.bots
	d.bots = nil
	d.cond.Broadcast()
	d.mu.Unlock()

	for _, b := range bots {
		close(b.stopCh)
		select {
		case <-b.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.log.Info("desk stopped", logx.Int("bots", len(bots)))
	return nil
}

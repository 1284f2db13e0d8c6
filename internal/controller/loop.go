package controller

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/shoxrux/bughouse-orchestrator/internal/stall"
	"github.com/shoxrux/bughouse-orchestrator/internal/store"
)

// RunPartnerLoop is the continuous turn-taker of spec.md §4.5: a background
// goroutine alternating Partner and Bot2 on board B by move parity. Each
// iteration (1) checks time-based stall abandonment for both board-B bots,
// (2) sleeps and restarts if paused, (3) chooses the engine whose turn it
// is, and (4) runs the decision cycle for it. It returns when the game
// reaches a terminal status or ctx is cancelled.
func (c *Controller) RunPartnerLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.LoopDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		status := c.status
		paused := c.paused
		c.mu.Unlock()
		if status.Terminal() {
			return
		}

		for _, e := range []stall.Entity{stall.Partner, stall.Bot2} {
			if chat := c.stallM.TimeAbandon(e, c.clocks.UpOnTime(e)); len(chat) > 0 {
				c.appendChat(e, chat)
			}
		}

		if paused {
			continue
		}

		mover := c.boardBMover()
		if err := c.botReply(ctx, mover); err != nil {
			c.logger.Warn("partner loop decision cycle failed", zap.Error(err), zap.String("entity", mover.String()))
		}
	}
}

// boardBMover picks whichever of Partner/Bot2 is on move on board B.
func (c *Controller) boardBMover() stall.Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	toMove := c.boardB.SideToMove()
	if toMove == c.seatOf(stall.Partner).color {
		return stall.Partner
	}
	return stall.Bot2
}

// scheduleWillTryChat emits the delayed "I will try." acknowledgement of
// spec.md §4.6.5: the receiving bot chats it 1-2s after the request
// arrives, not immediately.
func (c *Controller) scheduleWillTryChat(e stall.Entity) {
	delay := stall.InboundChatDelay.MinMS + rand.Intn(stall.InboundChatDelay.MaxMS-stall.InboundChatDelay.MinMS+1)
	go func() {
		time.Sleep(time.Duration(delay) * time.Millisecond)
		c.appendChat(e, []string{"I will try."})
	}()
}

func (c *Controller) appendChat(e stall.Entity, lines []string) {
	for _, line := range lines {
		_ = c.chatStore.Append(store.ChatRecord{
			GameID:  c.gameID,
			Speaker: e.String(),
			Text:    line,
		})
	}
}

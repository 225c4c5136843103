package chat

import (
	"context"
	"time"

	"chatd/internal/manager"
)

// acquireSlot reserves a queue slot and then the single in-flight
// generation slot. Returns a release func to be deferred. Both waits are
// bounded by QueueWait; a full queue and an expired wait read as busy.
func (c *Client) acquireSlot(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer := time.NewTimer(c.cfg.QueueWait)
	defer timer.Stop()
	select {
	case c.queueCh <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, manager.ErrBusy(c.cfg.QueueWait)
	}

	acquired := false
	defer func() {
		if !acquired {
			<-c.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timer2 := time.NewTimer(c.cfg.QueueWait)
	defer timer2.Stop()
	select {
	case c.genCh <- struct{}{}:
		acquired = true
		return func() { <-c.genCh; <-c.queueCh }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer2.C:
		return nil, manager.ErrBusy(c.cfg.QueueWait)
	}
}

package batch

import "fmt"

// nextStamp returns a millisecond timestamp strictly greater than the last
// one handed out, so job IDs never repeat across runs of one controller.
// Callers must hold c.mu.
func (c *Controller) nextStamp() int64 {
	stamp := c.now().UnixMilli()
	if stamp <= c.lastStamp {
		stamp = c.lastStamp + 1
	}
	c.lastStamp = stamp
	return stamp
}

func jobID(stamp int64, presetID int) string {
	return fmt.Sprintf("%d-%d", stamp, presetID)
}

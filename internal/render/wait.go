package render

import (
	"context"
	"time"
)

const pollInterval = 250 * time.Millisecond

// ScrollUntilStable scrolls at most pulses times by dy, pausing after each
// pulse, and stops early once the document height stops growing.
// It returns the number of pulses performed.
func ScrollUntilStable(ctx context.Context, p Page, pulses, dy int, pause time.Duration) (int, error) {
	var last int64 = -1
	for i := 0; i < pulses; i++ {
		h, err := p.Scroll(ctx, dy)
		if err != nil {
			return i, err
		}
		if err := sleep(ctx, pause); err != nil {
			return i + 1, err
		}
		if h <= last {
			return i + 1, nil
		}
		last = h
	}
	return pulses, nil
}

// WaitForAny tries each selector in order, polling each for up to timeout,
// and returns the first one with at least one match with its nodes.
// A zero timeout checks each selector once.
func WaitForAny(ctx context.Context, p Page, selectors []string, timeout time.Duration) (string, []Node, error) {
	for _, sel := range selectors {
		deadline := time.Now().Add(timeout)
		for {
			nodes, err := p.QueryAll(ctx, sel)
			if err != nil {
				return "", nil, err
			}
			if len(nodes) > 0 {
				return sel, nodes, nil
			}
			if !time.Now().Before(deadline) {
				break
			}
			if err := sleep(ctx, pollInterval); err != nil {
				return "", nil, err
			}
		}
	}
	return "", nil, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package prompt

import "context"

// StaticPlanner returns a fixed reply. Used when no planning model is
// configured; scene planning then degrades to its single-scene fallback.
type StaticPlanner struct {
	Reply string
}

func (s StaticPlanner) Complete(ctx context.Context, system, user string) (string, error) {
	return s.Reply, nil
}

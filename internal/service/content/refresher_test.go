package content

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

type countingTarget struct {
	calls  int
	bypass bool
}

func (c *countingTarget) Refresh(_ context.Context, bypassCache bool) (*Snapshot, error) {
	c.calls++
	c.bypass = bypassCache
	return &Snapshot{}, nil
}

func TestParseSchedule(t *testing.T) {
	for _, spec := range []string{"*/5 * * * *", "@every 10m", "@hourly"} {
		if _, err := ParseSchedule(spec); err != nil {
			t.Errorf("spec %q should parse: %v", spec, err)
		}
	}
	for _, spec := range []string{"", "every five minutes", "* * *"} {
		if _, err := ParseSchedule(spec); err == nil {
			t.Errorf("spec %q should be rejected", spec)
		}
	}
}

func TestRefresherRunBypassesCache(t *testing.T) {
	target := &countingTarget{}
	r, err := NewRefresher(target, "@every 1h", zap.NewNop())
	if err != nil {
		t.Fatalf("NewRefresher: %v", err)
	}

	r.run()

	if target.calls != 1 || !target.bypass {
		t.Fatalf("unexpected run result: %+v", target)
	}
}

func TestRefresherStartStop(t *testing.T) {
	r, err := NewRefresher(&countingTarget{}, "@every 1h", zap.NewNop())
	if err != nil {
		t.Fatalf("NewRefresher: %v", err)
	}

	r.Start()
	if r.Next().IsZero() {
		t.Fatalf("expected a scheduled next run")
	}
	r.Stop(context.Background())
}

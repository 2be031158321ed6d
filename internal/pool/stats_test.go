package pool

import "testing"

func TestStatsReportsOccupancyAgainstBounds(t *testing.T) {
	p := newTestPool(4, 2)
	p.idle = append(p.idle, &Slot{})
	p.active[&Slot{}] = struct{}{}

	s := p.Stats()
	if s.Idle != 1 || s.Active != 1 || s.MaxIdle != 2 || s.MaxActive != 4 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

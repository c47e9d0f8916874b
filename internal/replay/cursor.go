package replay

import (
	"sort"
	"time"

	"github.com/rickgao/tickplant/internal/model"
)

// state is a market cursor's position in its lifecycle.
type state int

const (
	stateUninitialized state = iota
	stateIterating
	stateExhausted
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateIterating:
		return "iterating"
	case stateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// series is one contract's ticks in timestamp order with a fill position.
type series struct {
	contractID string
	ticks      []model.Tick
	pos        int // index of the latest tick at or before the last grid point, -1 if none
}

// cursor lazily walks one market's resampled grid.
type cursor struct {
	state    state
	series   []*series
	interval time.Duration
	next     time.Time // next grid point to produce
	end      time.Time // last grid point, inclusive
}

// newCursor groups ticks by contract and positions the grid. to bounds the
// grid when non-zero; otherwise the last tick does.
func newCursor(ticks []model.Tick, interval time.Duration, to time.Time) *cursor {
	c := &cursor{interval: interval}
	if len(ticks) == 0 {
		c.state = stateExhausted
		return c
	}

	byContract := make(map[string]*series)
	first, last := ticks[0].Timestamp, ticks[0].Timestamp
	for _, t := range ticks {
		s, ok := byContract[t.ContractID]
		if !ok {
			s = &series{contractID: t.ContractID, pos: -1}
			byContract[t.ContractID] = s
			c.series = append(c.series, s)
		}
		s.ticks = append(s.ticks, t)
		if t.Timestamp.Before(first) {
			first = t.Timestamp
		}
		if t.Timestamp.After(last) {
			last = t.Timestamp
		}
	}
	for _, s := range c.series {
		sort.SliceStable(s.ticks, func(i, j int) bool {
			return s.ticks[i].Timestamp.Before(s.ticks[j].Timestamp)
		})
	}

	bound := last
	if !to.IsZero() {
		bound = to
	}
	c.next = ceilGrid(first, interval)
	c.end = floorGrid(bound, interval)
	c.state = stateIterating
	if c.next.After(c.end) {
		c.state = stateExhausted
	}
	return c
}

// pull produces the next grid point. ok is false once the grid is
// exhausted, after which the cursor stays exhausted.
func (c *cursor) pull() (at time.Time, snap model.Snapshot, ok bool) {
	for c.state == stateIterating {
		if c.next.After(c.end) {
			c.state = stateExhausted
			break
		}

		at = c.next
		c.next = c.next.Add(c.interval)

		snap = make(model.Snapshot, len(c.series))
		for _, s := range c.series {
			for s.pos+1 < len(s.ticks) && !s.ticks[s.pos+1].Timestamp.After(at) {
				s.pos++
			}
			if s.pos >= 0 {
				snap[s.contractID] = s.ticks[s.pos].Book
			}
		}
		if len(snap) > 0 {
			return at, snap, true
		}
	}
	return time.Time{}, nil, false
}

// ceilGrid returns the first multiple of d since the Unix epoch at or after t.
func ceilGrid(t time.Time, d time.Duration) time.Time {
	n := t.UnixNano()
	q := n / int64(d)
	if q*int64(d) < n {
		q++
	}
	return time.Unix(0, q*int64(d)).UTC()
}

// floorGrid returns the last multiple of d since the Unix epoch at or before t.
func floorGrid(t time.Time, d time.Duration) time.Time {
	n := t.UnixNano()
	q := n / int64(d)
	if q*int64(d) > n {
		q--
	}
	return time.Unix(0, q*int64(d)).UTC()
}

// Package poller implements the Quote Poller.
//
// The Quote Poller:
//   - Fetches quotes for a fixed set of markets on every cycle
//   - Appends each snapshot to the tick store with the cycle's timestamp
//   - Passes the snapshot on to any registered handlers (cache mirror, strategy)
//   - Sleeps for the interval minus the time the cycle took, never negative
//
// A failed cycle is logged and counted; the loop carries on with the next one.
package poller

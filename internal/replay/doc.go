// Package replay turns stored tick history back into the snapshot stream the
// quote poller produces, so a strategy can be backtested unchanged.
//
// Each market is resampled onto a fixed grid of epoch-aligned instants, one
// every Interval. A grid point carries, per contract, the latest stored book
// at or before it. Contracts with no observation yet are left out of that
// point. A market's sequence starts at the first grid point not before its
// first tick and ends at the last grid point not after Range.To, or after
// its last tick when Range.To is zero.
//
// Markets are pulled round-robin: each Next call advances every live market
// by one point and merges the results.
package replay

// Package model defines shared data types used across tickplant.
//
// Conventions:
//   - Prices and quantities: float64 in exchange units (price in basis points
//     of probability, quantity in stake units * 10^4)
//   - Timestamps: time.Time in UTC; persisted as int64 microseconds since epoch
//   - IDs: strings as returned by the exchange
//   - Money balances: decimal.Decimal
package model

// Package api provides the exchange REST gateway: every remote call goes
// through a Client, which attaches the session header and implements the two
// list-growth strategies used by the exchange.
//
//   - Cursor pagination: events, orders, account activity. The response's
//     pagination.next_page is a query fragment; its absence ends the loop.
//   - ID chunking: markets, contracts, quotes. Id lists are split into
//     fixed-size chunks, one request per chunk, results kept in chunk order.
//
// The gateway does not retry. Retry policy belongs to the caller.
package api

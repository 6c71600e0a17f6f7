// Package marketcache owns the only market-data connection to Kalshi.
//
// A single poller goroutine fetches open tennis listings on a fixed
// interval and swaps a complete snapshot in atomically. Readers get a
// shallow copy and never wait on the network. A failed fetch keeps the
// previous snapshot, so health reports a growing age instead of empty data.
//
// Client reads the same snapshot from a running cache service over HTTP.
package marketcache

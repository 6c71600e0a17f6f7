// Package api is a small Kalshi REST client covering market data and the
// portfolio endpoints the trader needs.
//
// REST endpoints:
//   - Production: https://api.elections.kalshi.com/trade-api/v2
//   - Demo: https://demo-api.kalshi.co/trade-api/v2
//
// GETs are retried with jittered exponential backoff on 429 and 5xx.
// Order submission is a single attempt. All calls share one token-bucket
// limiter.
package api

// Package model defines the data types shared by the market cache, the
// valuation pipeline and the trader.
//
// Conventions:
//   - Prices: integer cents (0-100), 0 means no quote
//   - Probabilities: float64 in [0, 1]
//   - Timestamps: time.Time in UTC; optional fields are pointers
//   - IDs: Kalshi tickers as strings
package model

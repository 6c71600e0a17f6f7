// Package trader runs the scan-and-trade cycle.
//
// A scan reads the latest cached snapshot, filters it with discovery,
// values the survivors with the analyzer, keeps one candidate per match
// with the grouper, and places at most one contract per match. Every event
// traded is recorded in Memory and flushed to disk before PlaceTrade
// returns, so a restart never trades the same match twice.
//
// ScanAndTrade calls are serialized; a manual scan and the scheduled loop
// never interleave.
package trader

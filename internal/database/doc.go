// Package database builds pgx connection pools for the Postgres trade
// history store.
package database

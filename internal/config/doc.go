// Package config loads the YAML configuration shared by the market cache
// service and the autotrader.
//
// Values may reference environment variables as ${VAR}; a .env file in the
// working directory is loaded before expansion. Unset fields take the
// Default* constants.
package config

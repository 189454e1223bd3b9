// Package config loads the dashboard configuration.
//
// Values are layered in increasing precedence:
//
//  1. Default()
//  2. config.yaml (or configs/config.yaml, or the file named by NHSDASH_CONFIG_FILE)
//  3. NHSDASH_* environment variables
//
// Environment variables follow the struct layout, for example:
//
//	NHSDASH_SERVER_PORT=8501
//	NHSDASH_PATHS_DATA_FILE="/srv/data/NHS Calls.csv"
//	NHSDASH_LOGGING_LEVEL=debug
//	NHSDASH_DASHBOARD_CACHE_ENABLED=false
//
// Relative paths resolve against the working directory first and the
// executable directory second; see Paths.Resolve.
package config

// Package config provides application configuration management from
// environment variables, with an optional YAML file overlay.
//
// # Configuration Structure
//
// Server settings:
//
//	LMS_HOST="0.0.0.0"
//	LMS_PORT="8080"
//	LMS_READ_TIMEOUT="15s"
//	LMS_WRITE_TIMEOUT="15s"
//	LMS_IDLE_TIMEOUT="60s"
//	LMS_SHUTDOWN_TIMEOUT="30s"
//
// Database settings:
//
//	LMS_DB_DRIVER="sqlite3"  # sqlite3, postgres
//	LMS_DB_DSN="lms.db"
//
// Auth settings:
//
//	LMS_JWT_SECRET="..."              # required
//	LMS_TOKEN_TTL="24h"
//	LMS_OPEN_REGISTRATION="true"      # allow unauthenticated admin signup
//
// Observability settings:
//
//	LMS_LOG_LEVEL="info"   # debug, info, warn, error
//	LMS_LOG_FORMAT="text"  # text, json
//
// # Precedence
//
// Defaults are overridden by the YAML file named in LMS_CONFIG_FILE (when
// set), which is in turn overridden by individual environment variables.
package config

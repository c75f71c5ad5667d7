// Package config provides configuration management for the remark report tools.
//
// # Configuration Sources
//
// Configuration is resolved in three layers, later layers winning field by field:
//
//	1. Default() values
//	2. A YAML file (REMARK_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All variables use the REMARK_ prefix and follow the struct nesting:
//
//	REMARK_SERVER_PORT=8080
//	REMARK_LOGGING_LEVEL=debug
//	REMARK_REPORT_PERCENT_PRESET=two_decimal
//	REMARK_REPORT_EXCLUSIONS_STATUSES=ABORT,OTHERS
//	REMARK_CACHE_ENABLE_REDIS=true
//	REMARK_CACHE_REDIS_URL=redis://localhost:6379/0
//
// List values are comma separated. Remark phrases that contain commas must be
// configured through the YAML file.
package config

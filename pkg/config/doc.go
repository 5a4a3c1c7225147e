// Package config provides configuration management for exportable.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfig("exportable.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("exportable.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention EXPORTABLE_SECTION_FIELD:
//
//   - EXPORTABLE_STORE_BACKEND overrides store.backend
//   - EXPORTABLE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - EXPORTABLE_JOBS_NIGHTLY_SCHEDULE overrides the schedule of job "nightly"
//
// Environment variables always take precedence over file-based configuration.
//
// # Singleton Pattern
//
//	if err := config.Initialize(path); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// # Example Configuration
//
//	types:
//	  files: ["types/tanks.yaml"]
//	  validator: cue
//
//	store:
//	  backend: sqlite
//	  sqlite:
//	    path: data/records.db
//
//	jobs:
//	  - name: nightly
//	    type: tank
//	    input: data/tanks.jsonl
//	    schedule: "0 3 * * *"
//	    targets:
//	      - path: out/tanks.csv
//	        force: true
//	      - path: out/tanks.json
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//
// Validation errors carry the dotted field path:
//
//	configuration validation failed with 2 errors:
//	  - jobs[0].schedule: invalid cron expression: ...
//	  - store.sqlite.driver: invalid driver "pg" (must be "sqlite3" or "sqlite")
package config

// Package config provides configuration loading for the signal bus.
//
// Configuration resolves in three layers, each overriding the one
// below:
//
//  1. Built-in defaults (Default)
//  2. An optional YAML file
//  3. SIGNALBUS_* environment variables
//
// # Basic Usage
//
// Load with an optional file path (empty string skips the file layer):
//
//	cfg, err := config.Load("signalbus.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Ingress.Port)
//
// # Environment Overrides
//
// Every field carries an env tag, so any value can be set without a
// file:
//
//	SIGNALBUS_INGRESS_PORT=9000
//	SIGNALBUS_JOURNAL_PATH=/var/lib/signalbus/journal.jsonl
//	SIGNALBUS_LOG_LEVEL=debug
//
// Malformed values fail the load: a non-numeric SIGNALBUS_INGRESS_PORT
// is a startup error, never a silent fallback to the default.
//
// # Validation
//
// Load finishes with Validate, which reports every range and
// cross-field problem in a single error rather than stopping at the
// first.
package config

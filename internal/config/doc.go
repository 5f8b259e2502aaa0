// Package config resolves the settings of the sbackup tool itself.
//
// These are distinct from the backup plan: they select which plan to load,
// where the persistent log goes, how verbose the run is, and how many items
// run at once. Values come from, in order of precedence:
//
//  1. command-line flags (bound with [BindFlags])
//  2. SBACKUP_* environment variables, e.g. SBACKUP_LOG_FILE
//  3. an optional settings.{yaml,json,toml} in the working directory or
//     $XDG_CONFIG_HOME/sbackup
//  4. built-in defaults
//
// When no plan path is given, [Load] searches ./config.{json,yaml,yml,toml}
// and then $XDG_CONFIG_HOME/sbackup, falling back to ./config.json.
package config

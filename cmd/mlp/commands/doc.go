// Package commands defines the mlp CLI.
//
// Commands
//
//   - train   Train the MLP on the configured dataset and print the report
//   - wili    Write WiLI test-split predictions of a fresh or saved model
//
// Every command reads a YAML config (see package config). Logs are written
// to stderr as JSON; the accuracy report goes to stdout. SIGINT and SIGTERM
// cancel the running command between batches.
package commands

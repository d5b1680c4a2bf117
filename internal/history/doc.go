// Package history persists finished and in-flight transcription jobs in
// SQLite so the CLI can show what ran, where the output went, and why a job
// failed.
//
// The Store manages the database connection, schema initialization, and the
// entry lifecycle (running, completed, failed). A disabled history section in
// the configuration yields a nil Store whose methods are safe no-ops, so
// callers record unconditionally.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package history

// Package kv provides the key-value stores the task collection is
// persisted to.
//
// A Store maps string keys to string values. Get reports a missing key
// with ok=false rather than an error, so callers can tell "never saved"
// apart from "could not read".
//
// Built-in backends:
//   - memory: in-process map, lost on exit
//   - file: one file per key under a data directory (default)
//   - redis: a Redis server via go-redis
//   - postgres, mysql: a todo_kv table via database/sql
//
// Open selects a backend by name from Options. Further backends can be
// added with Register.
package kv

// package repositories provides the persistence layer for run history.
//
// Run summaries are written once at the end of each upload run and queried by
// the CLI for status reporting. Failure details are stored as JSON columns so
// the schema stays stable as failure categories evolve.
package repositories

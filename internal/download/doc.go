// Package download copies episodes from a shared Plex server to local disk.
//
// A Job records the chosen server, show, destination folder, and the
// per-episode status, and lives in a small SQLite database so an interrupted
// run can pick up where it stopped. Runner walks a job's pending episodes and
// hands each to Fetcher, which resumes partial transfers with HTTP Range
// requests against a "<file>.tmp" sibling of the final path.
package download

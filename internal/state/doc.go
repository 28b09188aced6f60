// Package state persists the processing checkpoint that makes runs
// resumable: the set of Gmail message IDs already handled, the session
// date filter, and running totals. The checkpoint is a JSON file
// written atomically and guarded by a file lock.
package state

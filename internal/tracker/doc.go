// Package tracker holds the job application domain model: the status
// enum matching the spreadsheet dropdown, (company, role) key
// normalization, and the dedup reconciliation that decides which
// extracted applications become new sheet rows, which update existing
// rows, and which are skipped.
package tracker

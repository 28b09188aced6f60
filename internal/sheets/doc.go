// Package sheets reads and writes the job application tracking tab of
// a Google Sheets spreadsheet.
//
// The tab has five columns: Company, Status, Role, Date Submitted, and
// Email Link. Existing rows are indexed by normalized (company, role)
// key for deduplication; new applications are appended in batches and
// status upgrades rewrite only the status and link cells of the
// matching row. Writes are rate limited and retried with exponential
// backoff on rate-limit and server errors.
package sheets

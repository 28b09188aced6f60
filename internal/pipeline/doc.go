// Package pipeline orchestrates one sync run: list matching Gmail
// messages, skip those already checkpointed, extract application
// fields from each remaining message with the LLM, reconcile the batch
// against the spreadsheet, and append or update rows. Processing is
// sequential and every message is checkpointed once handled, so an
// interrupted run resumes without repeating LLM calls. Dry runs
// preview the plan without writing rows or checkpoint entries.
package pipeline

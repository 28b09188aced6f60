// Package gmail provides a thin client over the Gmail API for reading
// messages from the primary inbox.
//
// Listing is paginated and date-filtered via the Gmail search query
// syntax. Message bodies are reduced to plain text: multipart payloads
// are walked preferring text/plain, with HTML stripped as a fallback.
// All API calls are rate limited and retried with exponential backoff
// on rate-limit and server errors.
package gmail

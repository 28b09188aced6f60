// Package llm extracts structured job application fields (company,
// role, status) from email text using a locally hosted Ollama model.
// One chat call is made per email with a JSON-only prompt; malformed
// model output degrades to Unknown/Unknown/n-a rather than failing
// the run.
package llm

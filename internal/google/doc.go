// Package google handles OAuth2 authentication for the Google APIs
// used by this tool (Gmail read-only and Sheets read/write).
//
// Client secrets are read from a credentials.json downloaded from the
// Google Cloud console. The resulting token is stored in the OS
// keyring when one is available, otherwise in a mode-0600 JSON file.
// Expired access tokens are refreshed transparently and the refreshed
// token is written back, so interactive authorization is a one-time
// setup step.
package google

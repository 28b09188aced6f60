// Package cmd implements the command-line interface.
//
// This package provides the following commands:
//   - sync: Read job application emails since a date and write them to the spreadsheet
//   - auth: Run the Google OAuth2 flow (with status and clear subcommands)
//   - version: Display version information
//
// The sync command is the default command when no subcommand is specified.
package cmd

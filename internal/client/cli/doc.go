// Package cli provides the interactive regkeeper command-line client.
//
// NewApp wires configuration, the local token store, the LMS and registry
// HTTP clients and the token services. App.Run starts the background
// refresher and a REPL that blocks until the user exits.
//
// Staff log in with their LMS account. Everyone signed in can list tokens,
// pick the current one and run the registration wizard; admins also issue,
// rotate and remove tokens and review students.
package cli

// Package commands defines the deyondcrypt CLI and wires dependencies
// for subcommands.
//
// Commands
//
//   - init          Derive the messaging identity from a wallet key
//   - identity      Print the local identity
//   - rotate        Rotate the signed pre-key and top up one-time keys
//   - bundle        Print the public pre-key bundle as JSON
//   - start-session Establish a session from a peer's bundle file
//   - encrypt       Encrypt a message for an established session
//   - decrypt       Decrypt an envelope from a file or stdin
//   - sessions      List established sessions
//
// # Implementation
//
// The root command builds the dependency graph (stores and services)
// before any subcommand runs, so handlers share one app context backed
// by the same Badger directory.
package commands

// Package store provides persistence for the crypto core's durable
// state: the identity key pair, pre-key pools, 1:1 sessions and group
// sessions.
//
// It contains two implementations of the domain storage interfaces:
//   - Memory: mutex-guarded in-process storage, used by tests and
//     short-lived tools.
//   - Badger: durable storage on a Badger key-value database.
//
// Both serialize records as JSON with base64 byte strings, so state
// written by one implementation loads from the other. All methods are
// concurrency-safe; ConsumeOneTimePreKey is atomic, so two concurrent
// handshake completions can never obtain the same one-time key.
package store

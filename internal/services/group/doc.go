// Package group manages sender-key fan-out sessions. Creating or
// joining a group mints this device's own sender key; distributions
// from other members are verified and recorded before any message from
// them will decrypt. Per-group operations are serialised by a lock so
// concurrent sends cannot reuse an iteration.
package group

// Package prekey manages the signed pre-key and one-time pre-key pools
// and assembles the published bundle for X3DH bootstrap.
//
// It rotates the current signed pre-key, replenishes the one-time pool
// and tracks consumption through the store.
package prekey

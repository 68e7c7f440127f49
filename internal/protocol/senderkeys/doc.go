// Package senderkeys implements the per-sender symmetric ratchet used
// for group messaging.
//
// Each group member owns one forward-secret chain and announces it to
// the other members through a signed SenderKeyDistribution. Sending
// advances the own chain by one message key (no DH step) and encrypting
// once serves every member, so group sends are O(1) in the member count.
//
// Receivers ratchet the announced chain forward to the message's
// iteration, caching intermediate keys for bounded out-of-order
// delivery with the same chain-step scheme as the 1:1 ratchet. An
// iteration behind the chain whose key is no longer cached fails with
// domain.ErrMessageKeyUsed.
package senderkeys

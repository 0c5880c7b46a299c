// Package messaging publishes and consumes broker messages through NATS or
// NSQ behind one Publisher/Consumer pair. Handlers see the same Message shape
// on both brokers, headers included.
package messaging

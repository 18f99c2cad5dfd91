// Package messaging publishes domain events to a broker without tying
// business code to a particular one.
//
// NATS and Kafka are supported. The "none" driver discards every message and
// is the default for local runs.
package messaging

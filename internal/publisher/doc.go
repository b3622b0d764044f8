// Package publisher turns a temperature value into one acknowledged MQTT
// message, retrying the whole connect → publish → disconnect cycle a
// bounded number of times.
//
// Each attempt generates a fresh identifier, validates the payload, and
// drives a Session through a single connection. A validation failure is
// the caller's mistake and aborts the call; transport failures and panics
// only cost an attempt. When every attempt fails, Publish reports false
// without an error.
//
// The Simulator wraps a Publisher and publishes random readings on an
// interval until its context is cancelled.
package publisher

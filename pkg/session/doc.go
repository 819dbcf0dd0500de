/*
Package session serializes turns of the same conversation and persists their
attributes.

Transports whose clients do not round-trip session attributes (HTTP, websocket,
the CLI runner) run each turn through Manager.Turn. The manager holds a
per-session lock (plus an optional distributed lock for multiple replicas),
injects the stored attributes into the event, and saves the reply's attributes
afterwards.
*/
package session

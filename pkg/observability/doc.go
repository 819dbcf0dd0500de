/*
Package observability instruments a parley App.

Metrics registers prometheus counters and histograms and feeds them from the
App's own hooks plus a TurnExecutor wrapper that times each turn. Audit logs
every state change and failure with slog.
*/
package observability

/*
Package domain contains the core domain models of the parley conversation engine.

It defines the fundamental entities of a turn: the inbound Event, the State graph
nodes and their Handlers, the Transition produced by resolving one step, and the
narrow capabilities (Model, Reply, Renderer) the pipeline consumes. This package
is kept pure and free of I/O, persistence or transport concerns.

# Key Entities

  - Event: one inbound, already-classified request (intent name, session attributes).
  - State: a named node of the conversation graph with intent-keyed entry behavior.
  - Handler: a tagged union of Literal transitions, HandlerFunc callbacks and Routes.
  - Transition: the normalized outcome of resolving one state/intent pair.
  - Reply: the mutable per-turn output accumulator.
*/
package domain

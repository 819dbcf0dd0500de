/*
Package ports defines the interfaces parley consumes and exposes.

These interfaces decouple the dispatch pipeline from its collaborators, so
models, replies and session storage can be swapped per deployment.

# Key Interfaces

  - ModelFactory: builds the conversation model of a turn from its event.
  - ReplyFactory: creates the empty reply a turn writes into.
  - SessionStore: persists session attributes for transports that do not round-trip them.
  - DistributedLocker: serializes turns of one session across replicas.
  - TurnExecutor: what transports drive (implemented by parley.App).
*/
package ports

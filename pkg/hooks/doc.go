/*
Package hooks implements the lifecycle event registry of the parley pipeline.

Every hook is a Chain holding two ordered callback lists: the normal list and the
"always last" list. Handlers returns the normal callbacks first, in registration
order, followed by the last callbacks. A Registry groups chains by name for
extension points discovered at configuration time (request types).

The sequencing helpers (Each, Last, First) run a chain strictly in order, one
callback at a time, because later callbacks observe the side effects of earlier ones.
*/
package hooks

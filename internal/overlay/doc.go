// Package overlay is the lifecycle engine behind transient UI surfaces
// (dialogs, modals, drawers). It is independent of any renderer.
//
// Core pieces:
//   - Store: ordered records keyed by id, snapshot + subscribe
//   - Manager: open / close / dismiss / close-all state machine
//   - Handle: settle-once result of an Open, awaited with a context
//   - Self: per-record capability handed to rendered content
//   - Reaper: periodic purge of closed records past a grace window
//
// A record moves Open -> Closing (guard pending) -> Closed -> Purged, or
// Open -> Dismissed -> Purged without consulting the guard. A new Open under
// an id that is still occupied closes the occupant first.
package overlay

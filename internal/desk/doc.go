// Package desk implements the order-fulfillment scheduler core: the order
// registry, the two-tier dispatch queue, the bot pool, and consistent
// status snapshots.
//
// All shared state lives behind a single mutex owned by Desk; idle bots
// park on a condition variable and serving bots wait on a cancellable
// clock timer, so there is no busy-polling anywhere.
package desk

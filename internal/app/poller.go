package app

import "context"

// StartStores launches the initial load of every store in the background.
// The service store keeps polling and the update store keeps its schedule
// until Close. It returns immediately.
func StartStores(ctx context.Context, c *Components) {
	c.Service.Start(ctx)
	go c.Rules.Start(ctx)
	go c.Activity.Start(ctx)
	go c.Updates.Start(ctx)
}

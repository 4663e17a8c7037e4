// Package runtime wires storage, config, and the domain stores into a
// single-node Tally instance. It exposes Open/Close, basic health checks,
// and accessors for the stores used by the HTTP layer.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Read the pending exportable changes
//	page, _ := rt.Exportables().ListChanges(nil, 100, "")
package runtime

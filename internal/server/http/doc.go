// Package httpserver provides the REST gateway for Tally: ledger CRUD, the
// exportable change feed with checkpoint acks, the billing feed, and the
// Inkwell billing-data proxy.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	logger, _ := log.ApplyConfig(&log.Config{Level: "info", Format: "text"})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver

// Package backup drives a backup run.
//
// An [Orchestrator] gates the run on a reachability check, then walks the
// plan's items in declaration order. Each item's files are transferred
// first, then its directories, one at a time; the status of the last
// transfer becomes the item's status. Items with nothing to transfer stay
// "not started".
//
// # Run States
//
//	Idle → ConnectionChecking → ProcessingItems → Reporting → Done
//	                  ↓
//	               Aborted
//
// A failed reachability check aborts before any transfer. A failed transfer
// never aborts; only a transfer that could not be started, or a cancelled
// context, stops the run.
//
// # Parallelism
//
// [WithParallelism] lets several items run at once. Transfers within one
// item stay sequential, so the last-result rule is unaffected.
//
//	o := backup.NewOrchestrator(checker, transferer, reporter,
//	    backup.WithLogger(logger),
//	    backup.WithParallelism(4),
//	)
//	summary, err := o.Run(ctx, p.Setup, p.Items)
package backup

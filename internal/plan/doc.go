// Package plan loads and validates backup plans.
//
// A plan is a run-wide [Setup] plus an ordered [Items] collection. [Load]
// reads the document (JSON, YAML or TOML, chosen by extension), validates it,
// fills in defaults and creates an output directory per item:
//
//	p, err := plan.Load(ctx, "config.json", plan.WithLogger(logger))
//	if err != nil {
//	    return err // ErrConfigNotFound, ErrConfigMalformed or ErrConfigInvalid
//	}
//
// Items keep their declaration order. Status is written by index through
// [Items.SetStatus] and is the only field that changes after load.
package plan

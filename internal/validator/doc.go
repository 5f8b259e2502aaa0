// Package validator collects validation issues for backup plans.
//
// Issues are gathered rather than returned one at a time, so a user fixing a
// plan sees every problem in one pass.
//
//	result := &validator.Result{}
//	if host == "" {
//		result.AddError("setup.host", "is required", nil)
//	}
//	if result.HasErrors() {
//		// reject the plan
//	}
//
// [Reporter] renders a Result as colored text or JSON.
package validator

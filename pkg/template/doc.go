/*
Package template defines the contracts the engine uses to talk to transformations.

	+------------+        +-------------+
	|  Template  |------->|  Operation  |
	|  (bundle)  |  1..n  |  (change)   |
	+------------+        +------+------+
	                             |
	                      +------+------+
	                      |   Result    |
	                      |  (outcome)  |
	                      +-------------+

🎯 Purpose:
- Describe what a template and an operation must provide
- Define the four outcomes an operation can report

The engine never looks inside an operation. It calls Apply, records the
returned Result, and treats a non-nil error as a failure:

	res, err := op.Apply(ctx, workDir)
	switch {
	case err != nil:
		// failed, keep going
	case res.Outcome == template.OutcomeManualAction:
		// surface res.Details as guidance
	}

A Type is how callers refer to a template kind without holding an instance.
Each execution gets a fresh Template from Type.New.
*/
package template

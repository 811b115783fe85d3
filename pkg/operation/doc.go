/*
Package operation runs the operations of one template against a working copy.

	+-------------+
	|  Template   |
	| (ordered    |
	| operations) |
	+------+------+
	       |
	+------+------+
	|  Executor   |
	| (apply each)|
	+------+------+
	       |
	+------+------+
	| StepResult  |
	+-------------+

🎯 Purpose:
- Apply every operation a template hands back, in that order
- Record one outcome per operation: applied, skipped, failed or manual-action
- Keep going after a failure so independent operations still run

⚡ Failure handling:
- An error returned by an operation is recorded as failed
- A panic is recovered and recorded as failed
- Cancellation stops operations that have not started and marks the step interrupted

🔍 Example:

	exec := operation.NewExecutor(operation.WithParallelism(4))
	step := exec.Execute(ctx, tmpl, workDir)
	if !step.Success() {
		for _, f := range step.Failures() {
			fmt.Println(f.Operation, f.Details)
		}
	}
*/
package operation

/*
Package wizard implements the guarded multi-step workflow controller shared by
every creation wizard of the console.

A Controller is built from an ordered list of domain.StepSpec values and owns a
single domain.WorkflowInstance. Forward navigation is gated by the current
step's validator, derived fields are kept consistent through a derive.Engine,
and submission runs an injected commit function exactly once at a time.

	ctrl, err := wizard.New("purchase_order", steps, nil,
		wizard.WithDependencies(rules),
		wizard.WithNotifier(sink),
	)
	_, _ = ctrl.UpdateField("vendor", "ACME")
	if err := ctrl.Next(); err != nil {
		// *domain.ValidationError: render ctrl.Snapshot().Errors inline
	}
	err = ctrl.Submit(ctx, commit)

# Phases

	Editing(i) --Next ok--> Editing(i+1) ... Editing(last) --Submit--> Submitting
	Submitting --commit ok--> Submitted (terminal, host discards the controller)
	Submitting --commit err--> Failed --any edit or Submit--> Editing/Submitting

Cancel marks the controller inactive: a commit resolving afterwards is dropped
without touching state.
*/
package wizard

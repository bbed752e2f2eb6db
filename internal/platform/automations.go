package platform

import (
	"context"

	"github.com/baikal-ai/baikalctl/internal/gateway"
)

// Automations is the typed view over the automation collection and its
// per-automation run history.
type Automations struct {
	client *gateway.Client
}

func NewAutomations(client *gateway.Client) *Automations {
	return &Automations{client: client}
}

// List returns all automation definitions.
func (a *Automations) List(ctx context.Context) ([]AutomationDefinition, error) {
	resp, err := a.client.Get(ctx, "/automations/")
	if err != nil {
		return nil, err
	}
	var defs []AutomationDefinition
	if err := gateway.DecodeJSON(resp, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// Create submits a new definition and returns the stored copy. The
// definition is validated locally first so malformed unions never reach
// the wire.
func (a *Automations) Create(ctx context.Context, def AutomationDefinition) (AutomationDefinition, error) {
	if err := def.Validate(); err != nil {
		return AutomationDefinition{}, err
	}
	resp, err := a.client.Post(ctx, "/automations/", def)
	if err != nil {
		return AutomationDefinition{}, err
	}
	var created AutomationDefinition
	if err := gateway.DecodeJSON(resp, &created); err != nil {
		return AutomationDefinition{}, err
	}
	return created, nil
}

// Get fetches one definition by id.
func (a *Automations) Get(ctx context.Context, id string) (AutomationDefinition, error) {
	resp, err := a.client.Get(ctx, "/automations/"+id)
	if err != nil {
		return AutomationDefinition{}, err
	}
	var def AutomationDefinition
	if err := gateway.DecodeJSON(resp, &def); err != nil {
		return AutomationDefinition{}, err
	}
	return def, nil
}

// Delete removes a definition.
func (a *Automations) Delete(ctx context.Context, id string) error {
	resp, err := a.client.Delete(ctx, "/automations/"+id)
	if err != nil {
		return err
	}
	return gateway.DecodeJSON(resp, nil)
}

// TriggerRun asks the backend to start a run. Acceptance does not mean the
// run is visible in Runs yet; the backend settles asynchronously.
func (a *Automations) TriggerRun(ctx context.Context, id string) error {
	resp, err := a.client.Post(ctx, "/automations/"+id+"/run", nil)
	if err != nil {
		return err
	}
	return gateway.DecodeJSON(resp, nil)
}

// Runs returns the run history for an automation, newest first as ordered
// by the backend. The client never re-sorts.
func (a *Automations) Runs(ctx context.Context, id string) ([]AutomationRun, error) {
	resp, err := a.client.Get(ctx, "/automations/"+id+"/runs")
	if err != nil {
		return nil, err
	}
	var runs []AutomationRun
	if err := gateway.DecodeJSON(resp, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

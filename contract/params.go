package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/host"
	"okinoko_gov/sdk"
)

// SetParameters replaces the governance parameters. Controller only.
func (g *Governance) SetParameters(tx *host.Tx, p gov.GovernanceParameters) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		return g.setParameters(tx, w, &p)
	})
}

func (g *Governance) setParameters(tx *host.Tx, w *gov.Wiring, p *gov.GovernanceParameters) error {
	if err := requireOwner(tx, w); err != nil {
		return err
	}
	if err := validateParameters(p); err != nil {
		return err
	}
	if err := saveParameters(tx, p); err != nil {
		return err
	}
	emitParametersEvent(tx, p)
	return nil
}

// SetStakingComponent swaps the voting power oracle and the voting id resource it issues. Controller only.
func (g *Governance) SetStakingComponent(tx *host.Tx, component sdk.Address, votingID sdk.Asset) error {
	return g.enter(tx, func(w *gov.Wiring) error {
		return g.setStakingComponent(tx, w, component, votingID)
	})
}

func (g *Governance) setStakingComponent(tx *host.Tx, w *gov.Wiring, component sdk.Address, votingID sdk.Asset) error {
	if err := requireOwner(tx, w); err != nil {
		return err
	}
	if !component.IsComponent() {
		return fmt.Errorf("%w: staking %q is not a component", ErrParameterInvalid, component)
	}
	if !votingID.IsValid() {
		return fmt.Errorf("%w: voting id resource %q", ErrParameterInvalid, votingID)
	}
	w.Staking = component
	w.VotingIDResource = votingID
	if err := saveWiring(tx, w); err != nil {
		return err
	}
	emitStakingChangedEvent(tx, component, votingID)
	return nil
}

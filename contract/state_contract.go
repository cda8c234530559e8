package contract

import (
	"fmt"

	"okinoko_gov/contract/gov"
	"okinoko_gov/sdk"
)

// loadWiring returns where governance finds its collaborators, or ErrNotInitialized before Init ran.
func loadWiring(st sdk.State) (*gov.Wiring, error) {
	raw, err := st.Get(wiringKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotInitialized
	}
	return gov.DecodeWiring(raw)
}

func saveWiring(st sdk.State, w *gov.Wiring) error {
	return st.Set(wiringKey, gov.EncodeWiring(w))
}

func loadParameters(st sdk.State) (*gov.GovernanceParameters, error) {
	raw, err := st.Get(parametersKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotInitialized
	}
	return gov.DecodeParameters(raw)
}

func saveParameters(st sdk.State, p *gov.GovernanceParameters) error {
	return st.Set(parametersKey, gov.EncodeParameters(p))
}

// validateParameters keeps every field positive and the threshold inside (0,1].
func validateParameters(p *gov.GovernanceParameters) error {
	if !p.Fee.IsPositive() {
		return fmt.Errorf("%w: fee must be positive", ErrParameterInvalid)
	}
	if p.ProposalDuration <= 0 {
		return fmt.Errorf("%w: proposal duration must be positive", ErrParameterInvalid)
	}
	if !p.Quorum.IsPositive() {
		return fmt.Errorf("%w: quorum must be positive", ErrParameterInvalid)
	}
	if !p.ApprovalThreshold.IsPositive() || p.ApprovalThreshold.GreaterThan(one) {
		return fmt.Errorf("%w: approval threshold must be in (0,1]", ErrParameterInvalid)
	}
	if p.MaxSubmitDelay <= 0 {
		return fmt.Errorf("%w: maximum submit delay must be positive", ErrParameterInvalid)
	}
	return nil
}

package contract

const (
	// minute is the unit every duration parameter is expressed in.
	minute int64 = 60

	// component methods reachable through the dispatcher (proposal steps, the reentrancy proxy)
	MethodSetParameters        = "set_parameters"
	MethodSetStakingComponent  = "set_staking_component"
	MethodHurryProposal        = "hurry_proposal"
	MethodFinishReentrancyStep = "finish_reentrancy_step"
	MethodSendTokens           = "send_tokens"

	// MethodSendStep is what the reentrancy proxy exposes for parking a step.
	MethodSendStep = "send_step"
)

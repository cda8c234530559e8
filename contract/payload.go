package contract

import (
	"fmt"
	"strconv"
	"strings"

	"okinoko_gov/contract/gov"
	"okinoko_gov/sdk"

	"github.com/shopspring/decimal"
)

// Step arguments for governance's own methods are pipe-delimited text, the same shape
// the CLI and proposal authors type by hand.

// splitPayload returns a getter that yields "" for missing trailing fields.
func splitPayload(args []byte, want int) (func(int) string, error) {
	raw := strings.TrimSpace(string(args))
	if raw == "" {
		return nil, fmt.Errorf("%w: payload missing", ErrParameterInvalid)
	}
	parts := strings.Split(raw, "|")
	if len(parts) < want {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrParameterInvalid, want, len(parts))
	}
	return func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}, nil
}

func parseUintField(v, name string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrParameterInvalid, name, v)
	}
	return n, nil
}

func parseIntField(v, name string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrParameterInvalid, name, v)
	}
	return n, nil
}

func parseDecimalField(v, name string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid %s %q", ErrParameterInvalid, name, v)
	}
	return d, nil
}

// decodeSetParametersArgs unpacks fee|duration|quorum|threshold|max_submit_delay.
// Example payload: 5000|7|10000|0.5|7
func decodeSetParametersArgs(args []byte) (*gov.GovernanceParameters, error) {
	get, err := splitPayload(args, 5)
	if err != nil {
		return nil, err
	}
	p := &gov.GovernanceParameters{}
	if p.Fee, err = parseDecimalField(get(0), "fee"); err != nil {
		return nil, err
	}
	if p.ProposalDuration, err = parseIntField(get(1), "proposal duration"); err != nil {
		return nil, err
	}
	if p.Quorum, err = parseDecimalField(get(2), "quorum"); err != nil {
		return nil, err
	}
	if p.ApprovalThreshold, err = parseDecimalField(get(3), "approval threshold"); err != nil {
		return nil, err
	}
	if p.MaxSubmitDelay, err = parseIntField(get(4), "maximum submit delay"); err != nil {
		return nil, err
	}
	return p, nil
}

// SetParametersArgs builds the payload decodeSetParametersArgs reads.
func SetParametersArgs(p gov.GovernanceParameters) []byte {
	return []byte(fmt.Sprintf("%s|%d|%s|%s|%d", p.Fee, p.ProposalDuration, p.Quorum, p.ApprovalThreshold, p.MaxSubmitDelay))
}

// decodeHurryArgs unpacks id|new_duration.
// Example payload: 4|1
func decodeHurryArgs(args []byte) (uint64, int64, error) {
	get, err := splitPayload(args, 2)
	if err != nil {
		return 0, 0, err
	}
	id, err := parseUintField(get(0), "proposal id")
	if err != nil {
		return 0, 0, err
	}
	dur, err := parseIntField(get(1), "new duration")
	return id, dur, err
}

func HurryArgs(id uint64, newDuration int64) []byte {
	return []byte(fmt.Sprintf("%d|%d", id, newDuration))
}

// decodeProposalIDArgs reads a bare proposal id.
// Example payload: 4
func decodeProposalIDArgs(args []byte) (uint64, error) {
	get, err := splitPayload(args, 1)
	if err != nil {
		return 0, err
	}
	return parseUintField(get(0), "proposal id")
}

func ProposalIDArgs(id uint64) []byte {
	return []byte(strconv.FormatUint(id, 10))
}

// decodeSendTokensArgs unpacks asset|amount|receiver. An empty receiver hands the bucket back to the caller.
// Example payload: resource:ilis|250|account:alice
func decodeSendTokensArgs(args []byte) (sdk.Asset, decimal.Decimal, sdk.Address, error) {
	get, err := splitPayload(args, 2)
	if err != nil {
		return "", decimal.Zero, "", err
	}
	asset := sdk.Asset(get(0))
	if !asset.IsValid() {
		return "", decimal.Zero, "", fmt.Errorf("%w: invalid asset %q", ErrParameterInvalid, get(0))
	}
	amount, err := parseDecimalField(get(1), "amount")
	if err != nil {
		return "", decimal.Zero, "", err
	}
	to := sdk.Address(get(2))
	if to != "" && !to.IsValid() {
		return "", decimal.Zero, "", fmt.Errorf("%w: invalid receiver %q", ErrParameterInvalid, get(2))
	}
	return asset, amount, to, nil
}

func SendTokensArgs(asset sdk.Asset, amount decimal.Decimal, to sdk.Address) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s", asset, amount, to))
}

// decodeSetStakingArgs unpacks component|voting_id_resource.
// Example payload: component:staking2|resource:voting_id2
func decodeSetStakingArgs(args []byte) (sdk.Address, sdk.Asset, error) {
	get, err := splitPayload(args, 2)
	if err != nil {
		return "", "", err
	}
	comp := sdk.Address(get(0))
	vid := sdk.Asset(get(1))
	if !comp.IsComponent() || !vid.IsValid() {
		return "", "", fmt.Errorf("%w: invalid staking wiring %q", ErrParameterInvalid, string(args))
	}
	return comp, vid, nil
}

func SetStakingArgs(component sdk.Address, votingID sdk.Asset) []byte {
	return []byte(fmt.Sprintf("%s|%s", component, votingID))
}

package contract

import (
	"strconv"

	"okinoko_gov/sdk"
)

// getCount reads the string counter under the key and defaults to zero, nothing magical here.
func getCount(st sdk.State, key string) (uint64, error) {
	raw, err := st.Get(key)
	if err != nil || len(raw) == 0 {
		return 0, err
	}
	return strconv.ParseUint(string(raw), 10, 64)
}

// setCount stores uint64 counters back as decimal strings.
func setCount(st sdk.State, key string, n uint64) error {
	return st.Set(key, []byte(strconv.FormatUint(n, 10)))
}

// nextProposalID hands out the current counter value and bumps it.
func nextProposalID(st sdk.State) (uint64, error) {
	id, err := getCount(st, proposalsCount)
	if err != nil {
		return 0, err
	}
	return id, setCount(st, proposalsCount, id+1)
}

package sdk

// State is the key/value view a component gets inside one transaction.
// Get returns nil, nil for missing keys.
type State interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

package cellar

import "strings"

// Policy selects which entry is evicted when the cache is full.
type Policy string

// Supported eviction policies.
const (
	// PolicyLRU evicts the least recently read or written key.
	PolicyLRU Policy = "lru"
	// PolicyFIFO evicts the earliest inserted key. Reads and updates do not
	// change the order.
	PolicyFIFO Policy = "fifo"
	// PolicyRandom evicts a key chosen uniformly at random.
	PolicyRandom Policy = "random"
)

// Policies returns every supported policy.
func Policies() []Policy {
	return []Policy{PolicyLRU, PolicyFIFO, PolicyRandom}
}

// ParsePolicy parses a policy name, ignoring case and surrounding spaces.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", &ConfigurationError{Option: "eviction policy", Value: s, Err: ErrInvalidPolicy}
	}
	return p, nil
}

// Valid reports whether p is a supported policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyLRU, PolicyFIFO, PolicyRandom:
		return true
	}
	return false
}

// String returns the policy name.
func (p Policy) String() string {
	return string(p)
}

// Set implements pflag.Value so a Policy can be bound to a command-line flag.
func (p *Policy) Set(s string) error {
	parsed, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}

// tracked reports whether the policy needs the access-order tracker.
func (p Policy) tracked() bool {
	return p != PolicyRandom
}

package model

// Chart is the user's chart of accounts: the ordered list of valid leaf
// account names plus the fallback account used when nothing resolves.
type Chart struct {
	DefaultAccount string
	Accounts       []string
}

// Contains reports whether name is a valid leaf of the chart.
func (c Chart) Contains(name string) bool {
	for _, a := range c.Accounts {
		if a == name {
			return true
		}
	}
	return false
}

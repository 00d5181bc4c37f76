package target

// Target is a candidate address reported by the network scanner
type Target struct {
	Address string
	// DiscoveredAt is the scanner's timestamp, kept as is
	DiscoveredAt string
}

func New(address, discoveredAt string) Target {
	return Target{
		Address:      address,
		DiscoveredAt: discoveredAt,
	}
}

func (t Target) String() string {
	return t.Address
}

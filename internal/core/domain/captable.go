package domain

// ShareClass identifies the kind of equity a holder owns.
type ShareClass string

// Share classes that contribute to the cap table.
const (
	ShareClassSAFE      ShareClass = "SAFE"
	ShareClassPreferred ShareClass = "Preferred"
	ShareClassOption    ShareClass = "Option"
	ShareClassCommon    ShareClass = "Common"
)

// ShareClassOf maps an equity entity to its share class.
func ShareClassOf(e Entity) (ShareClass, bool) {
	switch e {
	case EntitySafe:
		return ShareClassSAFE, true
	case EntityPreferred:
		return ShareClassPreferred, true
	case EntityOption:
		return ShareClassOption, true
	case EntityCommon:
		return ShareClassCommon, true
	default:
		return "", false
	}
}

// Shareholder is one equity relation contributing to the cap table.
type Shareholder struct {
	ID         string     `json:"id"`
	Class      ShareClass `json:"type"`
	Party      *Party     `json:"party,omitempty"`
	Shares     float64    `json:"shares"`
	Investment float64    `json:"investment"`
}

// CapTable aggregates equity across shareholders.
type CapTable struct {
	OptionPool       float64 `json:"optionPool"`
	AuthorizedShares float64 `json:"authorizedShares"`
	CommonShares     float64 `json:"commonShares"`
	OptionShares     float64 `json:"optionShares"`
	OptionRemaining  float64 `json:"optionRemaining"`
	PreferredShares  float64 `json:"preferredShares"`
	FullyDiluted     float64 `json:"fullyDiluted"`
	TotalShares      float64 `json:"totalShares"`
	TotalFunding     float64 `json:"totalFunding"`

	Shareholders []Shareholder `json:"shareholders"`
}

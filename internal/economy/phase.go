package economy

// Phase is a step of one round. Phases advance strictly in order and only a
// soft reset returns to Planning.
type Phase uint8

const (
	PhasePlanning      Phase = iota // investments and margins are staged
	PhaseDemandSettled              // production registered, demand pushed to materials
	PhasePriceSettled               // unit costs and sell prices derived from settled demand
	PhaseSelling                    // customers are buying
	PhaseSettled                    // sales and profit tallied
)

var phaseNames = [...]string{"planning", "demand-settled", "price-settled", "selling", "settled"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

package updater

// Outcome classifies one UpdateBootloader call.
type Outcome int

const (
	NoChange     Outcome = iota // flash already holds the image and parameters
	OK                          // sector rewritten
	Fail                        // erase or write did not complete
	NotAvailable                // no candidate image in the resource store
)

func (o Outcome) String() string {
	switch o {
	case NoChange:
		return "no change"
	case OK:
		return "ok"
	case Fail:
		return "fail"
	case NotAvailable:
		return "not available"
	default:
		return "unknown"
	}
}

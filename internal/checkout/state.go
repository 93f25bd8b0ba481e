package checkout

// State tracks how far a checkout attempt progressed. The header commit is
// the point of no return: once it lands the sale exists, and every later
// step can only degrade the outcome to PartialFailure.
type State string

const (
	StateIdle            State = "idle"
	StateHeaderPending   State = "header_pending"
	StateHeaderCommitted State = "header_committed"
	StateItemsPending    State = "items_pending"
	StateStockPending    State = "stock_pending"
	StateDone            State = "done"
	StatePartialFailure  State = "partial_failure"
)

func (s State) String() string {
	return string(s)
}

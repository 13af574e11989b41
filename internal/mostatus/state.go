// Package mostatus implements the manufacturing order status dashboard: daily state
// counts over a date range, recent finished orders and operation type drill-downs.
package mostatus

// State is a manufacturing order state tracked by the daily snapshot.
type State string

// Tracked states.
const (
	StateDraft     State = "draft"
	StateConfirmed State = "confirmed"
	StateProgress  State = "progress"
	StateDone      State = "done"
	StateCancel    State = "cancel"
)

var orderedStates = []State{StateDraft, StateConfirmed, StateProgress, StateDone, StateCancel}

// States returns the tracked states in chart order.
func States() []State {
	out := make([]State, len(orderedStates))
	copy(out, orderedStates)
	return out
}

type stateMeta struct {
	label string
	color string
	fill  string
	text  string
	badge string
}

var stateInfo = map[State]stateMeta{
	StateDraft:     {"Draft", "rgb(128, 128, 128)", "rgba(128, 128, 128, 0.1)", "ร่าง / Draft", "bg-secondary"},
	StateConfirmed: {"Confirmed", "rgb(54, 162, 235)", "rgba(54, 162, 235, 0.1)", "ยืนยันแล้ว / Confirmed", "bg-primary"},
	StateProgress:  {"In Progress", "rgb(255, 206, 86)", "rgba(255, 206, 86, 0.1)", "กำลังดำเนินการ / In Progress", "bg-warning"},
	StateDone:      {"Done", "rgb(75, 192, 192)", "rgba(75, 192, 192, 0.1)", "เสร็จสิ้น / Done", "bg-success"},
	StateCancel:    {"Cancelled", "rgb(255, 99, 132)", "rgba(255, 99, 132, 0.1)", "ยกเลิก / Cancelled", "bg-danger"},
}

// Valid reports whether s is one of the tracked states.
func (s State) Valid() bool {
	_, ok := stateInfo[s]
	return ok
}

// Label is the dataset legend label.
func (s State) Label() string { return stateInfo[s].label }

// Color is the line colour.
func (s State) Color() string { return stateInfo[s].color }

// Fill is the translucent background colour.
func (s State) Fill() string { return stateInfo[s].fill }

// StatusText returns the bilingual status label; unknown states echo the raw value.
func StatusText(state string) string {
	if meta, ok := stateInfo[State(state)]; ok {
		return meta.text
	}
	return state
}

// StatusClass returns the badge class for a state.
func StatusClass(state string) string {
	if meta, ok := stateInfo[State(state)]; ok {
		return meta.badge
	}
	return "bg-secondary"
}

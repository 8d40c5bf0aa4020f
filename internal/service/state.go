package service

// State is a step of a pipeline run.
type State int

const (
	StateInit State = iota
	StateContainersReady
	StateFetched
	StateMasked
	StateTableReady
	StateLoaded
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateInit:            "INIT",
	StateContainersReady: "CONTAINERS_READY",
	StateFetched:         "FETCHED",
	StateMasked:          "MASKED",
	StateTableReady:      "TABLE_READY",
	StateLoaded:          "LOADED",
	StateDone:            "DONE",
	StateFailed:          "FAILED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

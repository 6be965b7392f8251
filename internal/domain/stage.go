package domain

// Stage is a state of the query pipeline.
type Stage string

// Pipeline stages in execution order. Failed is terminal and reachable from
// classifying, retrieving and generating.
const (
	StageIdle        Stage = "idle"
	StageClassifying Stage = "classifying"
	StageRetrieving  Stage = "retrieving"
	StageAssembling  Stage = "assembling"
	StageGenerating  Stage = "generating"
	StageComplete    Stage = "complete"
	StageFailed      Stage = "failed"
)

var stageOrder = map[Stage]int{
	StageIdle:        0,
	StageClassifying: 1,
	StageRetrieving:  2,
	StageAssembling:  3,
	StageGenerating:  4,
	StageComplete:    5,
}

// CanTransition reports whether the pipeline may move from s to next.
// Forward moves go one step at a time; failure is allowed from stages that call out or classify.
func (s Stage) CanTransition(next Stage) bool {
	if next == StageFailed {
		switch s {
		case StageClassifying, StageRetrieving, StageGenerating:
			return true
		}
		return false
	}
	from, ok := stageOrder[s]
	if !ok {
		return false
	}
	to, ok := stageOrder[next]
	return ok && to == from+1
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageFailed
}

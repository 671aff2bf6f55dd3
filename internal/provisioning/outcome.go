package provisioning

// Outcome classifies the result of one step.
type Outcome string

// Step outcomes.
const (
	OutcomeAlreadySatisfied Outcome = "already-satisfied"
	OutcomeNewlySatisfied   Outcome = "newly-satisfied"
	OutcomeFailedFatal      Outcome = "failed-fatal"
	OutcomeFailedWarned     Outcome = "failed-warned"
)

// Outcomes lists every outcome in a stable order.
var Outcomes = []Outcome{
	OutcomeAlreadySatisfied,
	OutcomeNewlySatisfied,
	OutcomeFailedFatal,
	OutcomeFailedWarned,
}

// Failed reports whether the step did not reach its goal.
func (o Outcome) Failed() bool {
	return o == OutcomeFailedFatal || o == OutcomeFailedWarned
}

// Stage is a state of the run state machine.
type Stage string

// Run stages in order. StageAborted is terminal and reachable from
// StageInstalling and StageDeploying.
const (
	StageCollecting Stage = "collecting-config"
	StageConfirmed  Stage = "confirmed"
	StageInstalling Stage = "installing"
	StageDeploying  Stage = "deploying-application"
	StagePolling    Stage = "polling-readiness"
	StageReporting  Stage = "reporting"
	StageDone       Stage = "done"
	StageAborted    Stage = "aborted"
)

// Stages lists the stages in run order, StageAborted last.
var Stages = []Stage{
	StageCollecting,
	StageConfirmed,
	StageInstalling,
	StageDeploying,
	StagePolling,
	StageReporting,
	StageDone,
	StageAborted,
}

// Index returns the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

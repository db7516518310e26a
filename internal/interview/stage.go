package interview

// Stage is a node of the interview workflow graph. It is control state only
// and is never persisted: every turn starts at StageRecruiter and the graph
// advances until it suspends for the next human message or reaches StageDone.
type Stage int

const (
	StageRecruiter Stage = iota
	StageTools
	StageEvaluator
	StageEvaluatorTools
	StageReportWriter
	StageReportWriterTools
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageRecruiter:
		return "recruiter"
	case StageTools:
		return "tools"
	case StageEvaluator:
		return "evaluator"
	case StageEvaluatorTools:
		return "evaluator_tools"
	case StageReportWriter:
		return "report_writer"
	case StageReportWriterTools:
		return "report_writer_tools"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

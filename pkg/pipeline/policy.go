package pipeline

// ActionClass classifies a tool call by reversibility.
type ActionClass string

const (
	ActionReadOnly     ActionClass = "READ_ONLY"
	ActionReversible   ActionClass = "REVERSIBLE"
	ActionIrreversible ActionClass = "IRREVERSIBLE"
)

// TrustLevel is the operator's configured autonomy tier, 0-3.
type TrustLevel int

const (
	TrustReportOnly     TrustLevel = 0
	TrustProposeConfirm TrustLevel = 1
	TrustAutoNotify     TrustLevel = 2
	TrustFullDelegation TrustLevel = 3
)

// readOnlyTools and irreversibleTools are frozen allow-lists; any tool
// name absent from both defaults to REVERSIBLE (conservative), per §4.7.
var readOnlyTools = map[string]struct{}{
	"read_file":    {},
	"list_files":   {},
	"grep":         {},
	"run_tests":    {},
	"git_status":   {},
	"git_diff":     {},
}

var irreversibleTools = map[string]struct{}{
	"delete_file":   {},
	"drop_table":    {},
	"force_push":    {},
	"deploy":        {},
	"rotate_secret": {},
}

// ClassifyTool maps a tool name to an ActionClass using the frozen
// allow-lists.
func ClassifyTool(toolName string) ActionClass {
	if _, ok := readOnlyTools[toolName]; ok {
		return ActionReadOnly
	}
	if _, ok := irreversibleTools[toolName]; ok {
		return ActionIrreversible
	}
	return ActionReversible
}

// Decision is the confirmation-matrix outcome for a (trust, action) pair.
type Decision string

const (
	DecisionAuto           Decision = "auto"
	DecisionAutoNotify     Decision = "auto+notify"
	DecisionConfirm        Decision = "confirm"
)

// Decide applies the confirmation matrix (§4.7). allowIrreversibleSkip
// lets FULL_DELEGATION bypass confirmation even for IRREVERSIBLE actions.
func Decide(trust TrustLevel, class ActionClass, allowIrreversibleSkip bool) Decision {
	if class == ActionReadOnly {
		return DecisionAuto
	}
	if class == ActionIrreversible {
		if trust == TrustFullDelegation && allowIrreversibleSkip {
			return DecisionAuto
		}
		return DecisionConfirm
	}
	// REVERSIBLE
	switch trust {
	case TrustReportOnly, TrustProposeConfirm:
		return DecisionConfirm
	case TrustAutoNotify:
		return DecisionAutoNotify
	case TrustFullDelegation:
		return DecisionAuto
	default:
		return DecisionConfirm
	}
}

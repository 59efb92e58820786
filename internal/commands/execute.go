package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add     func(AddArgs) (Result, error)
	Plan    func(PlanArgs) (Result, error)
	Sync    func(SyncArgs) (Result, error)
	Energy  func(EnergyArgs) (Result, error)
	Dismiss func(DismissArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "add handler not configured"}
		}
		return handlers.Add(*cmd.Add)
	case TypePlan:
		if handlers.Plan == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "plan handler not configured"}
		}
		return handlers.Plan(*cmd.Plan)
	case TypeSync:
		if handlers.Sync == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "sync handler not configured"}
		}
		return handlers.Sync(*cmd.Sync)
	case TypeEnergy:
		if handlers.Energy == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "energy handler not configured"}
		}
		return handlers.Energy(*cmd.Energy)
	case TypeDismiss:
		if handlers.Dismiss == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "dismiss handler not configured"}
		}
		return handlers.Dismiss(*cmd.Dismiss)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

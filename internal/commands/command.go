package commands

import (
	"fmt"
	"strings"

	"dayflow/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypePlan    Type = "plan"
	TypeSync    Type = "sync"
	TypeEnergy  Type = "energy"
	TypeDismiss Type = "dismiss"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Title string
}

// PlanArgs scopes auto-scheduling. Scope is "all", "backlog", or a
// task id; Date is an optional "YYYY-MM-DD" target day.
type PlanArgs struct {
	Scope string
	Date  string
}

type SyncArgs struct {
	Source string
}

type EnergyArgs struct {
	Level     model.DailyLevel
	Intention model.Intention
	Note      string
}

type DismissArgs struct {
	EventID string
}

type Command struct {
	Type    Type
	Raw     string
	Add     *AddArgs
	Plan    *PlanArgs
	Sync    *SyncArgs
	Energy  *EnergyArgs
	Dismiss *DismissArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypePlan:
		return parsePlan(input, args)
	case TypeSync:
		return parseSync(input, args)
	case TypeEnergy:
		return parseEnergy(input, args)
	case TypeDismiss:
		return parseDismiss(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Title: title}}, nil
}

func parsePlan(raw string, args []string) (Command, error) {
	scope := "all"
	date := ""
	for _, arg := range args {
		lower := strings.ToLower(arg)
		switch {
		case lower == "all" || lower == "backlog":
			scope = lower
		case strings.HasPrefix(lower, "date:"):
			date = strings.TrimSpace(strings.TrimPrefix(arg, "date:"))
		default:
			scope = arg
		}
	}
	if date != "" {
		if _, err := model.ParseDate(date); err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("plan date must be YYYY-MM-DD, got %q", date)}
		}
	}
	return Command{Type: TypePlan, Raw: raw, Plan: &PlanArgs{Scope: scope, Date: date}}, nil
}

func parseSync(raw string, args []string) (Command, error) {
	source := ""
	if len(args) > 0 {
		source = strings.ToLower(args[0])
	}
	return Command{Type: TypeSync, Raw: raw, Sync: &SyncArgs{Source: source}}, nil
}

func parseEnergy(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "energy requires a level"}
	}
	level := model.DailyLevel(strings.ToLower(args[0]))
	if !level.IsValid() {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown energy level: %s", args[0])}
	}
	intention := model.Intention("")
	noteParts := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		if lower := strings.ToLower(arg); strings.HasPrefix(lower, "intent:") {
			intention = model.Intention(strings.TrimPrefix(lower, "intent:"))
			if !intention.IsValid() {
				return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown intention: %s", arg)}
			}
			continue
		}
		noteParts = append(noteParts, arg)
	}
	note := strings.TrimSpace(strings.Join(noteParts, " "))
	return Command{Type: TypeEnergy, Raw: raw, Energy: &EnergyArgs{Level: level, Intention: intention, Note: note}}, nil
}

func parseDismiss(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "dismiss requires an event id"}
	}
	return Command{Type: TypeDismiss, Raw: raw, Dismiss: &DismissArgs{EventID: args[0]}}, nil
}

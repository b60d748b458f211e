// Package session models the per-chat conversation of the bot front-end:
// a closed set of states, an explicit transition table and a store
// abstraction keyed by chat id.
package session

import (
	"fmt"

	"fintrack/internal/core"
)

// State is the mode a chat is in. Every awaiting state consumes exactly one
// message and then returns to Idle.
type State int

const (
	Idle State = iota
	AwaitingTransaction
	AwaitingDeleteTransaction
	AwaitingFilterValue
	AwaitingSetBudget
	AwaitingFile
)

var stateNames = [...]string{
	Idle:                      "idle",
	AwaitingTransaction:       "awaiting_transaction",
	AwaitingDeleteTransaction: "awaiting_delete_transaction",
	AwaitingFilterValue:       "awaiting_filter_value",
	AwaitingSetBudget:         "awaiting_set_budget",
	AwaitingFile:              "awaiting_file",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState is the inverse of String. Persistent stores use it.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown session state %q", name)
}

// Input is the kind of update received from a chat.
type Input int

const (
	InputText Input = iota
	InputDocument
	InputStart
)

func (i Input) String() string {
	switch i {
	case InputText:
		return "text"
	case InputDocument:
		return "document"
	case InputStart:
		return "start"
	}
	return fmt.Sprintf("Input(%d)", int(i))
}

// Action is what the dispatcher must perform on a transition.
type Action int

const (
	ActionNone Action = iota
	ActionReset
	ActionAddTransaction
	ActionDeleteTransaction
	ActionApplyFilter
	ActionSetBudget
	ActionImportFile
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionReset:
		return "reset"
	case ActionAddTransaction:
		return "add_transaction"
	case ActionDeleteTransaction:
		return "delete_transaction"
	case ActionApplyFilter:
		return "apply_filter"
	case ActionSetBudget:
		return "set_budget"
	case ActionImportFile:
		return "import_file"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

type key struct {
	state State
	input Input
}

// Transition is the outcome of feeding an input to a state.
type Transition struct {
	Next   State
	Action Action
}

var transitions = map[key]Transition{
	{AwaitingTransaction, InputText}:       {Idle, ActionAddTransaction},
	{AwaitingDeleteTransaction, InputText}: {Idle, ActionDeleteTransaction},
	{AwaitingFilterValue, InputText}:       {Idle, ActionApplyFilter},
	{AwaitingSetBudget, InputText}:         {Idle, ActionSetBudget},
	{AwaitingFile, InputDocument}:          {Idle, ActionImportFile},
}

// Next looks up the transition for (s, in). /start resets any state. Inputs
// without an entry leave the state unchanged and do nothing.
func Next(s State, in Input) Transition {
	if in == InputStart {
		return Transition{Next: Idle, Action: ActionReset}
	}
	if t, ok := transitions[key{s, in}]; ok {
		return t
	}
	return Transition{Next: s, Action: ActionNone}
}

// Session is the conversation context of one chat.
type Session struct {
	State State
	// FilterField is meaningful only while State is AwaitingFilterValue.
	FilterField core.Field
}

// IdleSession is the zero conversation.
func IdleSession() Session {
	return Session{State: Idle}
}

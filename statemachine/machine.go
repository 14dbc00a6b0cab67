package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"bulk-buddy-api/models"
)

// ErrInvalidTransition is wrapped by every rejected transition
var ErrInvalidTransition = errors.New("invalid transition")

// Transition defines a valid state change and who can perform it
type Transition[S ~string] struct {
	From  S               `json:"from"`
	To    S               `json:"to"`
	Actor models.UserRole `json:"actor"`
}

type transitionKey[S ~string] struct {
	From  S
	To    S
	Actor models.UserRole
}

// Machine is a transition table for one status type
type Machine[S ~string] struct {
	name        string
	transitions []Transition[S]
	allowed     map[transitionKey[S]]bool
}

// New builds a machine and its lookup map
func New[S ~string](name string, transitions ...Transition[S]) *Machine[S] {
	m := &Machine[S]{
		name:        name,
		transitions: transitions,
		allowed:     make(map[transitionKey[S]]bool, len(transitions)),
	}
	for _, t := range transitions {
		m.allowed[transitionKey[S]{t.From, t.To, t.Actor}] = true
	}
	return m
}

// Name identifies the entity the machine governs
func (m *Machine[S]) Name() string { return m.name }

// Transitions returns the full table for documentation
func (m *Machine[S]) Transitions() []Transition[S] {
	out := make([]Transition[S], len(m.transitions))
	copy(out, m.transitions)
	return out
}

// ValidTransitionsFrom returns all valid next states from a given state
func (m *Machine[S]) ValidTransitionsFrom(status S) []S {
	var nexts []S
	seen := map[S]bool{}
	for _, t := range m.transitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves status
func (m *Machine[S]) IsTerminal(status S) bool {
	return len(m.ValidTransitionsFrom(status)) == 0
}

// CanTransition checks if a given actor can move from one state to another
func (m *Machine[S]) CanTransition(from, to S, actor models.UserRole) error {
	if m.allowed[transitionKey[S]{from, to, actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s %s → %s is not allowed for %s; valid transitions from %s are: %s",
		ErrInvalidTransition, m.name, from, to, actor, from, m.describeValidFrom(from))
}

func (m *Machine[S]) describeValidFrom(status S) string {
	nexts := m.ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

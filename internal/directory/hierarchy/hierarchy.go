// Package hierarchy computes lookups and reporting chains over a loaded
// employee sequence. Every function is pure and leaves its input untouched.
package hierarchy

import (
	"strconv"
	"strings"

	"github.com/staffdir/staffdir-backend/internal/directory/domain"
)

// FindByID returns the employee with the given id
func FindByID(employees []domain.Employee, id int64) (domain.Employee, bool) {
	for _, e := range employees {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Employee{}, false
}

// FindByLevel returns every employee whose level matches, ignoring case
func FindByLevel(employees []domain.Employee, level string) []domain.Employee {
	var out []domain.Employee
	for _, e := range employees {
		if strings.EqualFold(string(e.Level), level) {
			out = append(out, e)
		}
	}
	return out
}

// Subordinates returns everyone who reports to id directly or transitively,
// in depth-first pre-order with siblings in sequence order. Managers are never
// subordinates. Each employee appears at most once even if the supervisor
// data contains a cycle.
func Subordinates(employees []domain.Employee, id int64) []domain.Employee {
	reports := make(map[string][]domain.Employee)
	for _, e := range employees {
		if e.Level == domain.LevelManager || !e.HasSupervisor() {
			continue
		}
		reports[e.Supervisor] = append(reports[e.Supervisor], e)
	}

	visited := map[int64]bool{id: true}
	var out []domain.Employee

	stack := pushReversed(nil, reports[strconv.FormatInt(id, 10)])
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[e.ID] {
			continue
		}
		visited[e.ID] = true
		out = append(out, e)
		stack = pushReversed(stack, reports[strconv.FormatInt(e.ID, 10)])
	}
	return out
}

func pushReversed(stack, children []domain.Employee) []domain.Employee {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, children[i])
	}
	return stack
}

// Superiors walks up the supervisor chain starting at id, nearest first.
// A supervisor only counts when its level differs from the employee it
// supervises; the walk stops at the sentinel, at a dangling or same-level
// reference, or when it would revisit someone already in the chain.
func Superiors(employees []domain.Employee, id int64) []domain.Employee {
	current, ok := FindByID(employees, id)
	if !ok {
		return nil
	}

	visited := map[int64]bool{current.ID: true}
	var out []domain.Employee

	for {
		supervisorID, ok := current.SupervisorID()
		if !ok {
			return out
		}
		superior, ok := findSuperior(employees, supervisorID, current.Level)
		if !ok || visited[superior.ID] {
			return out
		}
		visited[superior.ID] = true
		out = append(out, superior)
		current = superior
	}
}

func findSuperior(employees []domain.Employee, id int64, below domain.Level) (domain.Employee, bool) {
	for _, e := range employees {
		if e.ID == id && e.Level != below {
			return e, true
		}
	}
	return domain.Employee{}, false
}

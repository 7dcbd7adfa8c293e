package services

import (
	"strings"

	"github.com/Btuvia/MZ-sub001/pkg/models"
)

// FilterAll is the sentinel value that disables a predicate. The empty string
// is treated the same way so unset query parameters are no-ops.
const FilterAll = "all"

// TaskFilter is a conjunction of independent, each-optional predicates.
type TaskFilter struct {
	Status     string `json:"status,omitempty" query:"status"`
	Type       string `json:"type,omitempty" query:"type"`
	Priority   string `json:"priority,omitempty" query:"priority"`
	SubjectID  string `json:"subject_id,omitempty" query:"subject_id"`
	WorkflowID string `json:"workflow_id,omitempty" query:"workflow_id"`
	AssignedTo string `json:"assigned_to,omitempty" query:"assigned_to"`

	// SearchTerm is matched case-insensitively as a substring against the
	// task title, description, and client name.
	SearchTerm string `json:"search_term,omitempty" query:"q"`
}

// FilterTasks returns the tasks matching every set predicate, preserving the
// input order. It is a pure function with no knowledge of how the task set
// was obtained, so it can run over a store result or an in-memory set alike.
func FilterTasks(tasks []*models.Task, f TaskFilter) []*models.Task {
	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesFilter(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func matchesFilter(t *models.Task, f TaskFilter) bool {
	if set(f.Status) && string(t.Status) != f.Status {
		return false
	}
	if set(f.Type) && t.Type != f.Type {
		return false
	}
	if set(f.Priority) && string(t.Priority) != f.Priority {
		return false
	}
	if set(f.SubjectID) && t.SubjectID != f.SubjectID {
		return false
	}
	if set(f.WorkflowID) && (t.WorkflowID == nil || *t.WorkflowID != f.WorkflowID) {
		return false
	}
	if set(f.AssignedTo) && t.AssignedTo != f.AssignedTo {
		return false
	}
	if set(f.SearchTerm) && !matchesSearch(t, f.SearchTerm) {
		return false
	}
	return true
}

func matchesSearch(t *models.Task, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(t.Title), term) {
		return true
	}
	if t.Description != nil && strings.Contains(strings.ToLower(*t.Description), term) {
		return true
	}
	if t.ClientName != nil && strings.Contains(strings.ToLower(*t.ClientName), term) {
		return true
	}
	return false
}

func set(v string) bool {
	return v != "" && v != FilterAll
}

package models

import (
	"time"
)

// Subject is a category/topic tag applied to tasks and client contexts. It is
// owned by configuration and read-only to the engine; when it carries a
// default workflow, applying it to a new lead or client context may trigger
// workflow instantiation.
type Subject struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	RelatedToPolicy   bool      `json:"related_to_policy" db:"related_to_policy"`
	IsFutureLead      bool      `json:"is_future_lead" db:"is_future_lead"`
	DefaultWorkflowID *string   `json:"default_workflow_id,omitempty" db:"default_workflow_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

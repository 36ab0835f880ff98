package domain

import "time"

// AuditAction names an administrative mutation.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditEntry records who changed which user and which fields were sent.
type AuditEntry struct {
	Action        AuditAction `json:"action"`
	ActorID       int64       `json:"actor_id"`
	ActorUsername string      `json:"actor_username"`
	TargetID      int64       `json:"target_id"`
	Fields        []string    `json:"fields,omitempty"`
	At            time.Time   `json:"at"`
}

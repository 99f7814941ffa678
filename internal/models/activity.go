package models

import (
	"time"

	"gorm.io/datatypes"
)

// Entity types an activity log entry can point at.
const (
	ActivityEntityCollege  = "college"
	ActivityEntityExamItem = "exam_item"
	ActivityEntityStudent  = "student"
	ActivityEntityAnswer   = "answer"
	ActivityEntityResults  = "results"
)

// ActivityEntities lists every recognised entity type.
var ActivityEntities = []string{
	ActivityEntityCollege,
	ActivityEntityExamItem,
	ActivityEntityStudent,
	ActivityEntityAnswer,
	ActivityEntityResults,
}

// IsActivityEntity reports whether entity is a recognised entity type.
func IsActivityEntity(entity string) bool {
	for _, known := range ActivityEntities {
		if known == entity {
			return true
		}
	}
	return false
}

// ActivityLog is the audit trail of examiner and system actions.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:32;not null;index:idx_activity_entity" json:"entity_type"`
	EntityID   *uint             `gorm:"index:idx_activity_entity" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

package models

// All returns every model managed by AutoMigrate, parents before children.
func All() []interface{} {
	return []interface{}{
		&User{},
		&College{},
		&ExamItem{},
		&Student{},
		&StudentResults{},
		&Answer{},
		&ActivityLog{},
		&Notification{},
	}
}

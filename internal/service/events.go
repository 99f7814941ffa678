package service

import "context"

// Event types published by the services.
const (
	EventAnswerSubmitted     = "answer.submitted"
	EventAnswerGraded        = "answer.graded"
	EventStudentRegistered   = "student.registered"
	EventStudentReviewed     = "student.reviewed"
	EventStudentLevelChanged = "student.level_changed"
)

// EventPublisher broadcasts domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func publisherOrNoop(publisher EventPublisher) EventPublisher {
	if publisher == nil {
		return noopPublisher{}
	}
	return publisher
}

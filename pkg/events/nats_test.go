package events

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNilPublisherIsNoop(t *testing.T) {
	var publisher *Publisher
	require.NoError(t, publisher.Publish(context.Background(), "answer.submitted", map[string]int{"id": 1}))
	publisher.Close()
}

func TestConnectWithoutURLDisablesEvents(t *testing.T) {
	publisher, err := Connect("", "exam", zerolog.Nop())
	require.NoError(t, err)
	require.Nil(t, publisher)
}

func TestSubjectUsesPrefix(t *testing.T) {
	publisher := NewPublisher(nil, ".exam.", zerolog.Nop())
	require.Equal(t, "exam.notifications", publisher.Subject("notifications"))
	require.Nil(t, publisher.Conn())

	var disabled *Publisher
	require.Equal(t, "notifications", disabled.Subject("notifications"))
	require.Nil(t, disabled.Conn())
}

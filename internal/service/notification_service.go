package service

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/dto"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/observability"
	"github.com/noah-isme/art-exam-api/internal/repository"
)

const notificationBufferSize = 16

var (
	// ErrNotificationNotFound is returned when the notification does not exist for the caller.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrNotificationRecipientUnknown is returned when the target account does not exist.
	ErrNotificationRecipientUnknown = errors.New("notification recipient not found")
)

// StudentNotifier delivers a message to one account.
type StudentNotifier interface {
	Notify(ctx context.Context, userID uint, kind, message string) (dto.NotificationResponse, error)
}

// NotificationService stores notifications and streams them to connected clients.
type NotificationService interface {
	StudentNotifier
	Send(ctx context.Context, payload dto.NotificationSendRequest) (dto.NotificationResponse, error)
	List(ctx context.Context, userID uint, unreadOnly bool, page, pageSize int) (dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID uint) (dto.NotificationReadAllResponse, error)
	Subscribe(userID uint, transport string) (<-chan dto.NotificationResponse, func())
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	redis     *redis.Client
	nats      *nats.Conn
	channel   string
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	broker    *notificationBroker
	nodeID    string
}

// notificationEnvelope carries a notification between API instances.
type notificationEnvelope struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}
}

// NewNotificationService constructs the notification service. Notifications are
// relayed to other instances over NATS when natsConn is set, otherwise over
// Redis pub/sub when redisClient is set.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, natsConn *nats.Conn, channel string, validate *validator.Validate, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		redis:     redisClient,
		nats:      natsConn,
		channel:   strings.TrimSpace(channel),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/art-exam-api/internal/service/notification"),
		broker:    &notificationBroker{subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{})},
		nodeID:    uuid.NewString(),
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.channel == "" {
		return
	}
	switch {
	case s.nats != nil:
		s.consumeNATS(ctx)
	case s.redis != nil:
		go s.consumeRedis(ctx)
	}
}

func (s *notificationService) Notify(ctx context.Context, userID uint, kind, message string) (dto.NotificationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.Int64("notification.user_id", int64(userID)),
		attribute.String("notification.type", kind),
	))
	defer span.End()

	model := models.Notification{UserID: userID, Type: kind, Message: message}
	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return dto.NotificationResponse{}, ErrNotificationRecipientUnknown
		}
		s.logger.Error().Err(err).Uint("user_id", userID).Str("type", kind).Msg("failed to store notification")
		return dto.NotificationResponse{}, err
	}

	notification := dto.NewNotificationResponse(model)
	s.broker.broadcast(notification)
	observability.NotificationsSent().WithLabelValues(kind, "local").Inc()

	if err := s.relay(ctx, notification); err != nil {
		s.logger.Warn().Err(err).Uint("notification_id", notification.ID).Msg("failed to relay notification")
	}

	return notification, nil
}

func (s *notificationService) Send(ctx context.Context, payload dto.NotificationSendRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.NotificationResponse{}, err
	}

	message := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(payload.Message)))
	if message == "" {
		return dto.NotificationResponse{}, FieldErrors{"message": "must contain text"}
	}

	return s.Notify(ctx, payload.UserID, models.NotificationExaminerMessage, message)
}

func (s *notificationService) List(ctx context.Context, userID uint, unreadOnly bool, page, pageSize int) (dto.NotificationListResponse, error) {
	page = maxInt(page, 1)
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := s.repo.List(ctx, repository.NotificationFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	responses := make([]dto.NotificationResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewNotificationResponse(item))
	}

	return dto.NotificationListResponse{
		Items:      responses,
		Unread:     unread,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, err
	}
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (dto.NotificationReadAllResponse, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return dto.NotificationReadAllResponse{}, err
	}
	return dto.NotificationReadAllResponse{Updated: updated}, nil
}

// Subscribe registers a stream client. The returned cleanup closes the channel.
func (s *notificationService) Subscribe(userID uint, transport string) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse, notificationBufferSize)
	s.broker.subscribe(userID, ch)
	observability.StreamClients().WithLabelValues(transport).Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.broker.unsubscribe(userID, ch)
			observability.StreamClients().WithLabelValues(transport).Dec()
		})
	}
}

func (s *notificationService) relay(ctx context.Context, notification dto.NotificationResponse) error {
	if s.channel == "" || (s.nats == nil && s.redis == nil) {
		return nil
	}

	payload, err := json.Marshal(notificationEnvelope{
		Source:       s.nodeID,
		Notification: notification,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if s.nats != nil {
		return s.nats.Publish(s.channel, payload)
	}
	return s.redis.Publish(ctx, s.channel, payload).Err()
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.channel, func(msg *nats.Msg) {
		s.handleRelayed(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("subject", s.channel).Msg("failed to subscribe to notification subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to unsubscribe from notification subject")
		}
	}()
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.channel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error().Err(err).Msg("notification redis subscription closed")
			}
			return
		}
		s.handleRelayed([]byte(msg.Payload))
	}
}

func (s *notificationService) handleRelayed(payload []byte) {
	var envelope notificationEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid relayed notification")
		return
	}
	if envelope.Source == s.nodeID || envelope.Notification.UserID == 0 {
		return
	}

	observability.NotificationsSent().WithLabelValues(envelope.Notification.Type, "relayed").Inc()
	s.broker.broadcast(envelope.Notification)
}

func (b *notificationBroker) subscribe(userID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[userID]; !ok {
		b.subscribers[userID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *notificationBroker) unsubscribe(userID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

// broadcast drops the notification for clients whose buffer is full; they
// can still read it from the list endpoint.
func (b *notificationBroker) broadcast(notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[notification.UserID] {
		select {
		case ch <- notification:
		default:
		}
	}
}

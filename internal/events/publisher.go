// Package events fans committed status changes out to the message brokers an
// external notification dispatcher listens on.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scholarship-api/internal/lifecycle"
	"github.com/noah-isme/scholarship-api/internal/models"
	"github.com/noah-isme/scholarship-api/internal/observability"
)

const statusChangedSuffix = "status_changed"

// NotifiableStatuses are the target statuses the dispatcher sends an SMS for.
var NotifiableStatuses = []models.ApplicationStatus{
	models.ApplicationStatusSubmitted,
	models.ApplicationStatusUnderReview,
	models.ApplicationStatusShortlisted,
	models.ApplicationStatusInterviewScheduled,
	models.ApplicationStatusApproved,
	models.ApplicationStatusRejected,
	models.ApplicationStatusWaitlisted,
	models.ApplicationStatusWithdrawn,
}

// ShouldNotify reports whether a transition into status triggers an applicant notification.
func ShouldNotify(status models.ApplicationStatus) bool {
	for _, candidate := range NotifiableStatuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// Envelope is the JSON payload placed on the wire.
type Envelope struct {
	Source string                  `json:"source"`
	Event  lifecycle.StatusChanged `json:"event"`
	Notify bool                    `json:"notify"`
	SentAt time.Time               `json:"sent_at"`
}

// Publisher delivers StatusChanged events.
type Publisher interface {
	Publish(ctx context.Context, event lifecycle.StatusChanged) error
}

// BrokerPublisher publishes to a Redis channel and a NATS subject. Either
// transport may be nil.
type BrokerPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string
}

// NewBrokerPublisher derives the channel names from channelBase: Redis uses
// "<base>:status_changed" and NATS "<base>.status_changed".
func NewBrokerPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *BrokerPublisher {
	channelBase = strings.TrimSpace(channelBase)
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":" + statusChangedSuffix
		subject = strings.ReplaceAll(channelBase, ":", ".") + "." + statusChangedSuffix
	}

	return &BrokerPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
	}
}

// RedisChannel returns the Redis pub/sub channel events are published on.
func (p *BrokerPublisher) RedisChannel() string {
	return p.redisChannel
}

// NATSSubject returns the NATS subject events are published on.
func (p *BrokerPublisher) NATSSubject() string {
	return p.natsSubject
}

func (p *BrokerPublisher) Publish(ctx context.Context, event lifecycle.StatusChanged) error {
	payload, err := json.Marshal(Envelope{
		Source: p.nodeID,
		Event:  event,
		Notify: ShouldNotify(event.To),
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}

	var errs []error

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			observability.EventsPublished().WithLabelValues("redis", "error").Inc()
			errs = append(errs, fmt.Errorf("redis publish: %w", err))
		} else {
			observability.EventsPublished().WithLabelValues("redis", "ok").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.EventsPublished().WithLabelValues("nats", "error").Inc()
			errs = append(errs, fmt.Errorf("nats publish: %w", err))
		} else {
			observability.EventsPublished().WithLabelValues("nats", "ok").Inc()
		}
	}

	if len(errs) == 0 {
		p.logger.Debug().
			Str("application_id", event.ApplicationID).
			Str("to", string(event.To)).
			Msg("status event published")
	}

	return errors.Join(errs...)
}

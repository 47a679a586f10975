package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NotificationService hands plain data to the outbound email pipeline. It is
// strictly best-effort: delivery failures are logged and never bubble up into
// the transaction that triggered them.
type NotificationService interface {
	NotifyTrialStarted(ctx context.Context, orgID uuid.UUID, planLabel string, trialDays int)
	NotifyUpgradeCompleted(ctx context.Context, orgID uuid.UUID, planLabel string, amount float64)
	NotifyGraceEntered(ctx context.Context, orgID uuid.UUID, planLabel string, daysLeft int)
}

const notificationQueueKey = "plangate:notifications:outbound"

type notificationEvent struct {
	Event          string    `json:"event"`
	OrganizationID uuid.UUID `json:"organization_id"`
	PlanLabel      string    `json:"plan_label"`
	TrialDays      int       `json:"trial_days,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	DaysLeft       int       `json:"days_left,omitempty"`
	QueuedAt       time.Time `json:"queued_at"`
}

type notificationService struct {
	redisClient *redis.Client
}

func NewNotificationService(redisAddr, redisPassword string, redisDB int) NotificationService {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	return &notificationService{redisClient: client}
}

func (s *notificationService) NotifyTrialStarted(ctx context.Context, orgID uuid.UUID, planLabel string, trialDays int) {
	s.enqueue(ctx, notificationEvent{
		Event:          "trial_started",
		OrganizationID: orgID,
		PlanLabel:      planLabel,
		TrialDays:      trialDays,
	})
}

func (s *notificationService) NotifyUpgradeCompleted(ctx context.Context, orgID uuid.UUID, planLabel string, amount float64) {
	s.enqueue(ctx, notificationEvent{
		Event:          "upgrade_completed",
		OrganizationID: orgID,
		PlanLabel:      planLabel,
		Amount:         amount,
	})
}

func (s *notificationService) NotifyGraceEntered(ctx context.Context, orgID uuid.UUID, planLabel string, daysLeft int) {
	s.enqueue(ctx, notificationEvent{
		Event:          "grace_entered",
		OrganizationID: orgID,
		PlanLabel:      planLabel,
		DaysLeft:       daysLeft,
	})
}

func (s *notificationService) enqueue(ctx context.Context, event notificationEvent) {
	event.QueuedAt = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("notification %s for organization %s not queued: %v", event.Event, event.OrganizationID, err)
		return
	}
	if err := s.redisClient.RPush(ctx, notificationQueueKey, data).Err(); err != nil {
		log.Printf("notification %s for organization %s not queued: %v", event.Event, event.OrganizationID, err)
	}
}

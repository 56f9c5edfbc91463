package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/config"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/events"
)

// NotificationService handles emitting notifications for issue and auth events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig

	mu   sync.Mutex
	subs []events.Subscription
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events. Call Close to release them.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs,
		n.dispatcher.Subscribe(events.EventIssueCreated, n.handleIssueCreated),
		n.dispatcher.Subscribe(events.EventIssueStatusChanged, n.handleIssueStatusChanged),
		n.dispatcher.Subscribe(events.EventIssueAssigned, n.handleIssueAssigned),
		n.dispatcher.Subscribe(events.EventIssueCommented, n.handleIssueCommented),
		n.dispatcher.Subscribe(events.EventAuthStateChanged, n.handleAuthStateChanged),
	)
}

// Close unsubscribes every handler.
func (n *NotificationService) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		sub.Unsubscribe()
	}
	n.subs = nil
}

func (n *NotificationService) handleIssueCreated(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("issue_id", event.IssueID), zap.String("actor_id", event.ActorID)}
	if payload, ok := event.Payload.(events.IssueChangedPayload); ok {
		fields = append(fields,
			zap.String("priority", string(payload.Issue.Priority)),
			zap.String("location", payload.Issue.Location))
	}
	n.logger.Info("IssueCreated", fields...)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleIssueStatusChanged(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("issue_id", event.IssueID)}
	if payload, ok := event.Payload.(events.IssueChangedPayload); ok {
		fields = append(fields,
			zap.String("from", string(payload.OldStatus)),
			zap.String("to", string(payload.Issue.Status)))
	}
	n.logger.Info("IssueStatusChanged", fields...)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleIssueAssigned(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("issue_id", event.IssueID)}
	if payload, ok := event.Payload.(events.IssueChangedPayload); ok {
		fields = append(fields, zap.String("assigned_to", payload.Issue.AssignedTo))
	}
	n.logger.Info("IssueAssigned", fields...)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleIssueCommented(ctx context.Context, event events.Event) error {
	n.logger.Info("IssueCommented", zap.String("issue_id", event.IssueID), zap.String("actor_id", event.ActorID))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAuthStateChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AuthStatePayload)
	if !ok {
		return nil
	}
	n.logger.Info("AuthStateChanged",
		zap.String("kind", string(payload.Kind)),
		zap.String("user_id", payload.UserID))
	if payload.Kind == domain.AuthEventPasswordRecovery {
		n.sendEmailNotificationStub(ctx, event)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("issue_id", event.IssueID),
		zap.String("event_type", string(event.Type)))
}

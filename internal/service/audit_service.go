package service

import (
	"context"
	"encoding/json"
	"time"

	"marketplace/internal/apperr"
	"marketplace/internal/logger"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns newest first, optionally filtered by action
func (s *auditService) GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, apperr.Database(err, "failed to fetch audit logs")
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format(time.RFC3339),
		})
	}

	return res, total, nil
}

// auditRecorder writes audit entries on behalf of mutating services
type auditRecorder struct {
	repo repository.AuditRepository
	log  *logger.Logger
}

// record is best effort: a failed audit write never fails the operation
func (a auditRecorder) record(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
	if a.repo == nil {
		return
	}

	detailsJSON, err := json.Marshal(details)
	if err != nil {
		detailsJSON = []byte("{}")
	}

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			entry.UserID = &parsed
		}
	}

	if err := a.repo.Log(ctx, &entry); err != nil {
		a.log.WithContext(ctx).Warnw("failed to write audit log", "action", action, "entity_id", entityID, "error", err)
	}
}

// EventPublisher pushes configuration change notifications to connected clients
type EventPublisher interface {
	Publish(event string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

const (
	EventVATRatesUpdated      = "vat_rates.updated"
	EventProductTaxUpdated    = "product_tax.updated"
	EventExchangeRatesUpdated = "exchange_rates.updated"
)

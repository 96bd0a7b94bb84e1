package service

import (
	"context"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/logger"
	"numbers_duel/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Обрабатывает журналирование аудита
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{
		repo: repository.NewAuditRepository(db),
	}
}

// Log добавляет запись в журнал аудита. Неудача записи не роняет
// основную операцию, только логируется
func (s *AuditService) Log(ctx context.Context, participantID, action, category string, details map[string]interface{}) {
	entry := &domain.AuditLog{
		ParticipantID: participantID,
		Action:        action,
		Category:      category,
		Details:       details,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", action, "participant_id", participantID)
	}
}

// LogMatch журналирует действие в матче
func (s *AuditService) LogMatch(ctx context.Context, participantID, action, matchID string, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["match_id"] = matchID
	s.Log(ctx, participantID, action, domain.AuditCategoryMatch, details)
}

// LogLogin журналирует вход пользователя
func (s *AuditService) LogLogin(ctx context.Context, participantID, ip string) {
	entry := &domain.AuditLog{
		ParticipantID: participantID,
		Action:        domain.AuditActionLogin,
		Category:      domain.AuditCategoryAuth,
		IP:            ip,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "participant_id", participantID)
	}
}

// GetRecentLogs возвращает последние записи журнала (для админ-бота)
func (s *AuditService) GetRecentLogs(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetRecent(ctx, limit)
}

// GetParticipantLogs возвращает последние записи одного участника
func (s *AuditService) GetParticipantLogs(ctx context.Context, participantID string, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByParticipant(ctx, participantID, limit)
}

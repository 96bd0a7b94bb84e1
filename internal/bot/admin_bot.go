package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/logger"
	"numbers_duel/internal/repository"
	"numbers_duel/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminBot обрабатывает команды администраторов через Telegram
type AdminBot struct {
	bot       *tgbotapi.BotAPI
	matchRepo *repository.MatchRepository
	userRepo  *repository.UserRepository
	audit     *service.AuditService
	adminIDs  []int64 // Telegram ID пользователей с правами админа
	stopCh    chan struct{}
	wg        sync.WaitGroup
	log       *slog.Logger
}

// NewAdminBot создаёт нового админ бота
func NewAdminBot(token string, matchRepo *repository.MatchRepository, userRepo *repository.UserRepository, audit *service.AuditService, adminIDs []int64) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "admin_bot")
	log.Info("admin bot authorized", "username", api.Self.UserName)

	return &AdminBot{
		bot:       api,
		matchRepo: matchRepo,
		userRepo:  userRepo,
		audit:     audit,
		adminIDs:  adminIDs,
		stopCh:    make(chan struct{}),
		log:       log,
	}, nil
}

// Start запускает прослушивание команд
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			// Проверка является ли пользователь админом
			if !b.isAdmin(update.Message.From.ID) {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop плавно останавливает бота
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	// Ожидание завершения обработчиков с таймаутом
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// handleCommand processes admin commands
func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response string

	switch msg.Command() {
	case "start", "help":
		response = b.helpMessage()

	case "stats":
		response = b.handleStats(ctx)

	case "top":
		response = b.handleTop(ctx)

	case "audit":
		response = b.handleAudit(ctx, msg.CommandArguments())

	default:
		response = "Неизвестная команда. /help для списка команд"
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, response)
	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("failed to send reply", "error", err, "command", msg.Command())
	}
}

func (b *AdminBot) helpMessage() string {
	return `Команды:
/stats - активные матчи и сыгранные за сутки
/top - лучшие игроки по победам
/audit [id] - последние записи журнала аудита, опционально одного участника`
}

func (b *AdminBot) handleStats(ctx context.Context) string {
	active, err := b.matchRepo.CountActive(ctx)
	if err != nil {
		return fmt.Sprintf("Ошибка получения статистики: %v", err)
	}

	finished, err := b.matchRepo.CountFinishedSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return fmt.Sprintf("Ошибка получения статистики: %v", err)
	}

	return fmt.Sprintf("📊 Статистика\n\nАктивных матчей: %d\nЗавершено за 24ч: %d", active, finished)
}

func (b *AdminBot) handleTop(ctx context.Context) string {
	top, err := b.userRepo.Leaderboard(ctx, 10)
	if err != nil {
		return fmt.Sprintf("Ошибка получения топа: %v", err)
	}
	if len(top) == 0 {
		return "Пока никто не сыграл ни одного матча"
	}

	var sb strings.Builder
	sb.WriteString("🏆 Топ игроков\n\n")
	for i, u := range top {
		name := u.Username
		if name == "" {
			name = u.FirstName
		}
		fmt.Fprintf(&sb, "%d. %s - %d побед / %d поражений\n", i+1, name, u.Wins, u.Losses)
	}
	return sb.String()
}

func (b *AdminBot) handleAudit(ctx context.Context, args string) string {
	var logs []*domain.AuditLog
	var err error
	if args = strings.TrimSpace(args); args != "" {
		logs, err = b.audit.GetParticipantLogs(ctx, args, 15)
	} else {
		logs, err = b.audit.GetRecentLogs(ctx, 15)
	}
	if err != nil {
		return fmt.Sprintf("Ошибка получения журнала: %v", err)
	}
	if len(logs) == 0 {
		return "Журнал пуст"
	}

	var sb strings.Builder
	sb.WriteString("📋 Последние действия\n\n")
	for _, entry := range logs {
		fmt.Fprintf(&sb, "%s | %s | %s\n",
			entry.CreatedAt.Format("02.01 15:04"),
			entry.ParticipantID,
			entry.Action)
	}
	return sb.String()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"

	"github.com/TWRT/tg-asana/internal/client"
	"github.com/TWRT/tg-asana/internal/logutil"
	"github.com/TWRT/tg-asana/internal/metrics"
	"github.com/TWRT/tg-asana/internal/models"
)

var ErrTaskCreation = errors.New("could not create asana task")

const msgAsanaFailed = "Could not create a task in Asana. Please check the logs."

type Result struct {
	Outcome Outcome
	Task    *models.Task
}

type IntakeService struct {
	classifier *Classifier
	formatter  *Formatter
	tasks      client.TaskProvider
	messenger  client.Messenger
	projectId  string
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewIntakeService(
	classifier *Classifier,
	formatter *Formatter,
	tasks client.TaskProvider,
	messenger client.Messenger,
	projectId string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *IntakeService {
	if logger == nil {
		logger = logutil.Discard()
	}
	return &IntakeService{
		classifier: classifier,
		formatter:  formatter,
		tasks:      tasks,
		messenger:  messenger,
		projectId:  projectId,
		metrics:    m,
		logger:     logger,
	}
}

// HandleMessage runs classify → format → create task → attach → reply for
// a single Telegram message. The returned error wraps ErrTaskCreation when
// Asana refused the task; every other failure is only logged.
func (s *IntakeService) HandleMessage(ctx context.Context, msg *telego.Message) (Result, error) {
	log := logutil.FromContext(ctx, s.logger)

	decision := s.classifier.Classify(msg)
	s.metrics.RecordUpdate(string(decision.Outcome))

	switch decision.Outcome {
	case OutcomeIgnore:
		log.Info("message ignored", "reason", decision.Reason)
		return Result{Outcome: OutcomeIgnore}, nil

	case OutcomeReject:
		log.Info("message rejected", "reason", decision.Reason, "chat_id", msg.Chat.ID)
		if msg.Chat.ID != 0 && msg.MessageID != 0 {
			s.reply(ctx, log, models.Reply{
				ChatID:    msg.Chat.ID,
				MessageID: msg.MessageID,
				Text:      ErrorText(decision.Reason),
			})
		}
		return Result{Outcome: OutcomeReject}, nil
	}

	details := decision.Details
	log = log.With("chat_id", details.ChatID, "message_id", details.MessageID, "kind", details.Kind)
	log.Debug("parsed task", "user", details.User, "group", details.Group, "has_photo", details.PhotoFileID != "")

	created, err := s.tasks.CreateTask(ctx, s.projectId, s.formatter.Format(*details))
	if err != nil {
		s.metrics.RecordTaskFailure()
		log.Error("failed to create asana task", "error", err)
		s.reply(ctx, log, models.Reply{
			ChatID:    details.ChatID,
			MessageID: details.MessageID,
			Text:      ErrorText(msgAsanaFailed),
		})
		return Result{Outcome: OutcomeTask}, fmt.Errorf("%w: %w", ErrTaskCreation, err)
	}
	s.metrics.RecordTaskCreated()
	log.Info("asana task created", "task_gid", created.Id)

	if details.PhotoFileID != "" && created.Id != "" {
		if err := s.attachPhoto(ctx, created.Id, details.PhotoFileID); err != nil {
			s.metrics.RecordAttachmentFailure()
			log.Warn("failed to attach image to asana task", "task_gid", created.Id, "error", err)
		} else {
			log.Info("image attached to asana task", "task_gid", created.Id)
		}
	}

	s.reply(ctx, log, models.Reply{
		ChatID:    details.ChatID,
		MessageID: details.MessageID,
		Text:      ConfirmationText(created),
		Markdown:  true,
	})
	return Result{Outcome: OutcomeTask, Task: created}, nil
}

func (s *IntakeService) attachPhoto(ctx context.Context, taskId, fileId string) error {
	file, err := s.messenger.OpenFile(ctx, fileId)
	if err != nil {
		return err
	}
	return s.tasks.AttachFile(ctx, taskId, *file)
}

func (s *IntakeService) reply(ctx context.Context, log *slog.Logger, r models.Reply) {
	if err := s.messenger.SendReply(ctx, r); err != nil {
		s.metrics.RecordReplyFailure()
		log.Error("failed to send telegram reply", "error", err)
	}
}

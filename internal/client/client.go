package client

import (
	"context"

	"github.com/TWRT/tg-asana/internal/models"
)

type TaskClient interface {
	CreateTask(ctx context.Context, projectId string, task models.Task) (*models.Task, error)
}

type AttachmentUploader interface {
	AttachFile(ctx context.Context, taskId string, file models.Attachment) error
}

type ProjectLookup interface {
	GetProject(ctx context.Context, projectId string) (*models.Project, error)
}

type Replier interface {
	SendReply(ctx context.Context, reply models.Reply) error
}

type FileOpener interface {
	OpenFile(ctx context.Context, fileId string) (*models.Attachment, error)
}

type TaskProvider interface {
	TaskClient
	AttachmentUploader
}

type Messenger interface {
	Replier
	FileOpener
}

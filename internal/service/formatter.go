package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/TWRT/tg-asana/internal/models"
)

type DueDateFunc func(now time.Time) *time.Time

type Formatter struct {
	dueDate DueDateFunc
	now     func() time.Time
}

func NewFormatter(dueDate DueDateFunc) *Formatter {
	return &Formatter{dueDate: dueDate, now: time.Now}
}

func (f *Formatter) Format(d models.TaskDetails) models.Task {
	var notes strings.Builder
	fmt.Fprintf(&notes, "Task Details:\n%s\n\nFrom: %s\nSource: %s", d.Question, d.User, d.Group)
	if d.ForwardedFrom != "" {
		fmt.Fprintf(&notes, "\nForwarded From: %s", d.ForwardedFrom)
	}

	task := models.Task{
		Name:        fmt.Sprintf("Support Task from %s in '%s'", d.User, d.Group),
		Description: notes.String(),
	}
	if f.dueDate != nil {
		task.DueDate = f.dueDate(f.now())
	}
	return task
}

func ConfirmationText(task *models.Task) string {
	text := "✅ Task created in Asana!"
	if task != nil && task.PermalinkURL != "" {
		text += fmt.Sprintf("\n[View Task](%s)", task.PermalinkURL)
	}
	return text
}

func ErrorText(reason string) string {
	return "⚠️ " + reason
}

package models

import (
	"io"
	"time"
)

type Task struct {
	Id           string
	Name         string
	Description  string
	DueDate      *time.Time
	PermalinkURL string
}

type Project struct {
	Id           string
	Name         string
	PermalinkURL string
}

// Attachment is a file streamed from Telegram into Asana. Body must be
// closed by whoever opened it.
type Attachment struct {
	FileName    string
	ContentType string
	Body        io.ReadCloser
}

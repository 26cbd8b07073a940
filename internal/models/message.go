package models

type MessageKind string

const (
	KindMention MessageKind = "mention"
	KindReply   MessageKind = "reply"
	KindPrivate MessageKind = "private"
)

// TaskDetails is what the classifier extracts from a Telegram message
// before it is formatted into an Asana task.
type TaskDetails struct {
	Kind          MessageKind
	Question      string
	User          string
	Group         string
	ForwardedFrom string
	ChatID        int64
	MessageID     int
	PhotoFileID   string
}

type Reply struct {
	ChatID    int64
	MessageID int
	Text      string
	Markdown  bool
}

package service

import (
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/mymmrac/telego"

	"github.com/TWRT/tg-asana/internal/models"
)

type Outcome string

const (
	OutcomeTask   Outcome = "task"
	OutcomeReject Outcome = "reject"
	OutcomeIgnore Outcome = "ignore"
)

const (
	imagePlaceholder   = "[Image attached to task]"
	forwardPlaceholder = "[Forwarded Media]"
	unknownUser        = "Unknown User"
	unknownGroup       = "Unknown Group"
	privateChat        = "Private Chat"

	msgReplyEmpty    = "I can't create a task from this. Please add a comment in your reply, or reply to a message that contains text or a caption."
	msgMentionEmpty  = "Please mention me with some text or an image."
	msgNotAuthorized = "Sorry, you are not authorized to create tasks."
	msgPrivateEmpty  = "Please send a text message, a forward, or media with a caption."
)

// Decision is the classifier verdict for one message. Reason is shown to
// the user for OutcomeReject and only logged for OutcomeIgnore.
type Decision struct {
	Outcome Outcome
	Reason  string
	Details *models.TaskDetails
}

type Classifier struct {
	botUsername string
	allowed     map[int64]struct{}
}

// NewClassifier builds a classifier for one bot. An empty botUsername makes
// any @mention count as addressing the bot.
func NewClassifier(botUsername string, allowedUserIDs []int64) *Classifier {
	allowed := make(map[int64]struct{}, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = struct{}{}
	}
	return &Classifier{
		botUsername: strings.TrimPrefix(botUsername, "@"),
		allowed:     allowed,
	}
}

func (c *Classifier) BotUsername() string {
	return c.botUsername
}

func (c *Classifier) Classify(msg *telego.Message) Decision {
	if msg == nil {
		return ignore("Update carries no message.")
	}

	switch msg.Chat.Type {
	case telego.ChatTypeGroup, telego.ChatTypeSupergroup:
		return c.classifyGroup(msg)
	case telego.ChatTypePrivate:
		return c.classifyPrivate(msg)
	default:
		return ignore("Unsupported chat type.")
	}
}

func (c *Classifier) classifyGroup(msg *telego.Message) Decision {
	text, entities := textWithEntities(msg)
	if !c.mentionsBot(text, entities) {
		return ignore("Bot was not mentioned in this message.")
	}
	comment := c.stripBotMentions(text, entities)
	group := msg.Chat.Title
	if group == "" {
		group = unknownGroup
	}

	if original := msg.ReplyToMessage; original != nil {
		content := messageContent(original)
		photo := largestPhoto(original)
		if content == "" && photo != "" {
			content = imagePlaceholder
		}
		if comment == "" && content == "" {
			return reject(msgReplyEmpty)
		}

		var parts []string
		if comment != "" {
			parts = append(parts, "Comment: "+comment)
		}
		if content != "" {
			parts = append(parts, "Original Content: "+content)
		}

		return Decision{
			Outcome: OutcomeTask,
			Details: &models.TaskDetails{
				Kind:          models.KindReply,
				Question:      strings.Join(parts, "\n---\n"),
				User:          displayName(original.From),
				Group:         group,
				ForwardedFrom: describeOrigin(original.ForwardOrigin),
				ChatID:        msg.Chat.ID,
				MessageID:     msg.MessageID,
				PhotoFileID:   photo,
			},
		}
	}

	photo := largestPhoto(msg)
	question := comment
	if question == "" && photo != "" {
		question = imagePlaceholder
	}
	if question == "" {
		return reject(msgMentionEmpty)
	}

	return Decision{
		Outcome: OutcomeTask,
		Details: &models.TaskDetails{
			Kind:          models.KindMention,
			Question:      question,
			User:          displayName(msg.From),
			Group:         group,
			ForwardedFrom: describeOrigin(msg.ForwardOrigin),
			ChatID:        msg.Chat.ID,
			MessageID:     msg.MessageID,
			PhotoFileID:   photo,
		},
	}
}

func (c *Classifier) classifyPrivate(msg *telego.Message) Decision {
	if msg.From == nil || !c.isAllowed(msg.From.ID) {
		return reject(msgNotAuthorized)
	}

	question := messageContent(msg)
	photo := largestPhoto(msg)
	if question == "" && photo != "" {
		question = imagePlaceholder
	}
	if question == "" && msg.ForwardOrigin != nil {
		question = forwardPlaceholder
	}
	if question == "" {
		return reject(msgPrivateEmpty)
	}

	return Decision{
		Outcome: OutcomeTask,
		Details: &models.TaskDetails{
			Kind:          models.KindPrivate,
			Question:      question,
			User:          displayName(msg.From),
			Group:         privateChat,
			ForwardedFrom: describeOrigin(msg.ForwardOrigin),
			ChatID:        msg.Chat.ID,
			MessageID:     msg.MessageID,
			PhotoFileID:   photo,
		},
	}
}

func (c *Classifier) isAllowed(id int64) bool {
	if id == 0 {
		return false
	}
	_, ok := c.allowed[id]
	return ok
}

func (c *Classifier) isBotMention(mention string) bool {
	if c.botUsername == "" {
		return true
	}
	return strings.EqualFold(strings.TrimPrefix(mention, "@"), c.botUsername)
}

func (c *Classifier) mentionsBot(text string, entities []telego.MessageEntity) bool {
	for _, e := range entities {
		if e.Type == telego.EntityTypeMention && c.isBotMention(entityText(text, e.Offset, e.Length)) {
			return true
		}
	}
	return false
}

// stripBotMentions removes the bot's @mentions from text. Entity offsets
// are in UTF-16 code units.
func (c *Classifier) stripBotMentions(text string, entities []telego.MessageEntity) string {
	type span struct{ start, end int }
	var spans []span
	for _, e := range entities {
		if e.Type == telego.EntityTypeMention && c.isBotMention(entityText(text, e.Offset, e.Length)) {
			spans = append(spans, span{e.Offset, e.Offset + e.Length})
		}
	}
	if len(spans) == 0 {
		return strings.TrimSpace(text)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	units := utf16.Encode([]rune(text))
	for _, s := range spans {
		if s.start < 0 || s.start >= len(units) {
			continue
		}
		end := min(s.end, len(units))
		// Swallow one following space when the mention starts a word, so
		// "please @bot fix" becomes "please fix".
		if end < len(units) && units[end] == ' ' && (s.start == 0 || isSpaceUnit(units[s.start-1])) {
			end++
		}
		units = append(units[:s.start], units[end:]...)
	}
	return strings.TrimSpace(string(utf16.Decode(units)))
}

func isSpaceUnit(u uint16) bool {
	return u == ' ' || u == '\n' || u == '\t'
}

func entityText(text string, offset, length int) string {
	encoded := utf16.Encode([]rune(text))
	if offset < 0 || offset >= len(encoded) {
		return ""
	}
	end := min(offset+length, len(encoded))
	return string(utf16.Decode(encoded[offset:end]))
}

func textWithEntities(msg *telego.Message) (string, []telego.MessageEntity) {
	if msg.Text != "" {
		return msg.Text, msg.Entities
	}
	return msg.Caption, msg.CaptionEntities
}

func messageContent(msg *telego.Message) string {
	if t := strings.TrimSpace(msg.Text); t != "" {
		return t
	}
	return strings.TrimSpace(msg.Caption)
}

func largestPhoto(msg *telego.Message) string {
	if len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}

func displayName(u *telego.User) string {
	if u == nil {
		return unknownUser
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return unknownUser
	}
	return name
}

func describeOrigin(origin telego.MessageOrigin) string {
	switch o := origin.(type) {
	case *telego.MessageOriginUser:
		return displayName(&o.SenderUser)
	case *telego.MessageOriginHiddenUser:
		return o.SenderUserName
	case *telego.MessageOriginChat:
		return withSignature(o.SenderChat.Title, o.AuthorSignature)
	case *telego.MessageOriginChannel:
		return withSignature(o.Chat.Title, o.AuthorSignature)
	default:
		return ""
	}
}

func withSignature(title, signature string) string {
	if signature == "" {
		return title
	}
	return title + " (" + signature + ")"
}

func ignore(reason string) Decision {
	return Decision{Outcome: OutcomeIgnore, Reason: reason}
}

func reject(reason string) Decision {
	return Decision{Outcome: OutcomeReject, Reason: reason}
}

package telegram

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/TWRT/tg-asana/internal/models"
)

type TelegramClient struct {
	bot        *telego.Bot
	httpClient *http.Client
}

// NewTelegramClient wraps a telego bot. Extra options are appended after
// the defaults so callers (tests, proxies) can override the API server.
func NewTelegramClient(token string, httpClient *http.Client, opts ...telego.BotOption) (*TelegramClient, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	botOpts := append([]telego.BotOption{
		telego.WithHTTPClient(httpClient),
		telego.WithDiscardLogger(),
	}, opts...)

	bot, err := telego.NewBot(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("create bot (telegram): %w", err)
	}
	return &TelegramClient{bot: bot, httpClient: httpClient}, nil
}

func (c *TelegramClient) Me(ctx context.Context) (*telego.User, error) {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("get me (telegram): %w", err)
	}
	return me, nil
}

func (c *TelegramClient) SendReply(ctx context.Context, reply models.Reply) error {
	params := &telego.SendMessageParams{
		ChatID: tu.ID(reply.ChatID),
		Text:   reply.Text,
	}
	if reply.MessageID != 0 {
		params.ReplyParameters = &telego.ReplyParameters{
			MessageID:                reply.MessageID,
			AllowSendingWithoutReply: true,
		}
	}
	if reply.Markdown {
		params.ParseMode = telego.ModeMarkdown
	}

	if _, err := c.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message (telegram): %w", err)
	}
	return nil
}

// OpenFile resolves a file_id and opens a streaming download of it.
func (c *TelegramClient) OpenFile(ctx context.Context, fileId string) (*models.Attachment, error) {
	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileId})
	if err != nil {
		return nil, fmt.Errorf("get file (telegram): %w", err)
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("get file (telegram): no file_path for %s", fileId)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bot.FileDownloadURL(file.FilePath), nil)
	if err != nil {
		return nil, fmt.Errorf("build request (telegram): %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file (telegram): %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file (telegram): status %d", resp.StatusCode)
	}

	return &models.Attachment{
		FileName: path.Base(file.FilePath),
		Body:     resp.Body,
	}, nil
}

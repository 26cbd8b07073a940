package asana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/TWRT/tg-asana/internal/models"
)

const defaultBaseUrl = "https://app.asana.com/api/1.0"

type AsanaClient struct {
	baseUrl    string
	token      string
	httpClient *http.Client
}

type Option func(*AsanaClient)

func WithBaseURL(u string) Option {
	return func(c *AsanaClient) {
		if u != "" {
			c.baseUrl = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *AsanaClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewAsanaClient(token string, opts ...Option) *AsanaClient {
	c := &AsanaClient{
		baseUrl:    defaultBaseUrl,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func formatDueDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func parseDueDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("parse due_on (asana): %w", err)
	}
	utc := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	return &utc, nil
}

// ContentTypeFor maps a file name to the MIME type Asana should store the
// attachment with.
func ContentTypeFor(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func (c *AsanaClient) CreateTask(ctx context.Context, projectId string, task models.Task) (*models.Task, error) {
	reqBody := CreateTaskRequest{
		Name:     task.Name,
		Notes:    task.Description,
		Projects: []string{projectId},
		DueOn:    formatDueDate(task.DueDate),
	}

	body, err := json.Marshal(CreateTaskRequestWrapper{Data: reqBody})
	if err != nil {
		return nil, fmt.Errorf("marshal create task request (asana): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/tasks", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request (asana): %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var created AsanaResponse[AsanaTask]
	if err := c.do(req, &created); err != nil {
		return nil, fmt.Errorf("create task (asana): %w", err)
	}

	dueDate, err := parseDueDate(created.Data.DueOn)
	if err != nil {
		return nil, err
	}

	return &models.Task{
		Id:           created.Data.Gid,
		Name:         created.Data.Name,
		Description:  created.Data.Notes,
		DueDate:      dueDate,
		PermalinkURL: created.Data.PermalinkURL,
	}, nil
}

// AttachFile streams file.Body into a multipart upload without buffering
// the whole image in memory.
func (c *AsanaClient) AttachFile(ctx context.Context, taskId string, file models.Attachment) error {
	if file.Body == nil {
		return fmt.Errorf("attach file (asana): empty body")
	}
	defer file.Body.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(file.FileName)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.FileName)))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file.Body); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/tasks/"+url.PathEscape(taskId)+"/attachments", pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("build request (asana): %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var uploaded AsanaResponse[AsanaAttachment]
	if err := c.do(req, &uploaded); err != nil {
		pr.Close()
		return fmt.Errorf("attach file (asana): %w", err)
	}
	return nil
}

func (c *AsanaClient) GetProject(ctx context.Context, projectId string) (*models.Project, error) {
	u := c.baseUrl + "/projects/" + url.PathEscape(projectId) + "?opt_fields=name,permalink_url"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request (asana): %w", err)
	}

	var resp AsanaResponse[AsanaProject]
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("get project (asana): %w", err)
	}

	return &models.Project{
		Id:           resp.Data.Gid,
		Name:         resp.Data.Name,
		PermalinkURL: resp.Data.PermalinkURL,
	}, nil
}

func (c *AsanaClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body (asana): %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response (asana): %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	var asanaErr AsanaErrors
	if err := json.Unmarshal(body, &asanaErr); err != nil || len(asanaErr.Errors) == 0 {
		return &APIError{StatusCode: status}
	}
	return &APIError{StatusCode: status, Message: asanaErr.Errors[0].Message}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

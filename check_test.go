package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/tg-asana/internal/config"
	"github.com/TWRT/tg-asana/internal/models"
)

type fakeProjects struct {
	project *models.Project
	err     error
	asked   string
}

func (f *fakeProjects) GetProject(_ context.Context, projectId string) (*models.Project, error) {
	f.asked = projectId
	return f.project, f.err
}

func TestRunCheck(t *testing.T) {
	cfg := &config.Config{
		BotUsername:    "OtherBot",
		AsanaProjectID: "1200",
		AllowedUserIDs: config.UserIDs{1, 2},
		DueInDays:      2,
	}
	projects := &fakeProjects{project: &models.Project{Id: "1200", Name: "Support", PermalinkURL: "https://app.asana.com/0/1200"}}

	var out bytes.Buffer
	require.NoError(t, runCheck(context.Background(), &out, cfg, "TaskBot", projects))

	assert.Equal(t, "1200", projects.asked)
	assert.Contains(t, out.String(), "Telegram bot: @TaskBot")
	assert.Contains(t, out.String(), "token belongs to @TaskBot")
	assert.Contains(t, out.String(), "Asana project: Support")
	assert.Contains(t, out.String(), "2 user(s)")
	assert.Contains(t, out.String(), "today + 2 day(s) (UTC)")
}

func TestRunCheckEmptyWhitelist(t *testing.T) {
	cfg := &config.Config{BotUsername: "taskbot", AsanaProjectID: "1200", DueInDays: -1}
	projects := &fakeProjects{project: &models.Project{Name: "Support"}}

	var out bytes.Buffer
	require.NoError(t, runCheck(context.Background(), &out, cfg, "TaskBot", projects))
	assert.NotContains(t, out.String(), "token belongs to")
	assert.Contains(t, out.String(), "ALLOWED_USER_IDS is empty")
	assert.NotContains(t, out.String(), "Due date")
}

func TestRunCheckProjectError(t *testing.T) {
	cfg := &config.Config{AsanaProjectID: "1200"}
	err := runCheck(context.Background(), &bytes.Buffer{}, cfg, "TaskBot", &fakeProjects{err: errors.New("Not a recognized ID")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asana project 1200")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, version+"\n", out.String())
}

package asana

import "fmt"

type AsanaResponse[T any] struct {
	Data T `json:"data"`
}

type AsanaTask struct {
	Gid          string `json:"gid"`
	Name         string `json:"name"`
	Notes        string `json:"notes"`
	Completed    bool   `json:"completed"`
	DueOn        string `json:"due_on"`
	PermalinkURL string `json:"permalink_url"`
}

type AsanaProject struct {
	Gid          string `json:"gid"`
	Name         string `json:"name"`
	PermalinkURL string `json:"permalink_url"`
}

type AsanaAttachment struct {
	Gid  string `json:"gid"`
	Name string `json:"name"`
}

type AsanaDetailError struct {
	Message string `json:"message"`
	Help    string `json:"help"`
}

type AsanaErrors struct {
	Errors []AsanaDetailError `json:"errors"`
}

type CreateTaskRequest struct {
	Name     string   `json:"name"`
	Notes    string   `json:"notes,omitempty"`
	Projects []string `json:"projects,omitempty"`
	DueOn    string   `json:"due_on,omitempty"`
}

type CreateTaskRequestWrapper struct {
	Data CreateTaskRequest `json:"data"`
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error status (asana): %d", e.StatusCode)
	}
	return fmt.Sprintf("Asana error (%d): %s", e.StatusCode, e.Message)
}

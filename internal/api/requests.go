package api

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fishalchemy/reel/internal/domain"
)

var requestValidate *validator.Validate

func init() {
	requestValidate = validator.New()
	// Report json names so local errors key the same way the server's do.
	requestValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = requestValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// Message is the bare {"message": ...} body returned by the auth endpoints.
type Message struct {
	Message string `json:"message"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() []FieldError { return validateRequest(r) }

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r CreateUserRequest) Validate() []FieldError { return validateRequest(r) }

// RenameUserRequest changes a username.
type RenameUserRequest struct {
	Username string `json:"username" validate:"notblank,max=64"`
}

func (r RenameUserRequest) Validate() []FieldError { return validateRequest(r) }

// GroupRequest creates or renames a group.
type GroupRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

func (r GroupRequest) Validate() []FieldError { return validateRequest(r) }

// ProjectRequest creates or updates a project.
type ProjectRequest struct {
	Name              string `json:"name" validate:"notblank,max=100"`
	Description       string `json:"description"`
	GithubURL         string `json:"github_url,omitempty" validate:"omitempty,url"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty" validate:"omitempty,url"`
}

func (r ProjectRequest) Validate() []FieldError { return validateRequest(r) }

// TicketRequest creates or edits a ticket.
type TicketRequest struct {
	Name        string `json:"name" validate:"notblank,max=200"`
	Description string `json:"description"`
	GithubURL   string `json:"github_url,omitempty" validate:"omitempty,url"`
}

func (r TicketRequest) Validate() []FieldError { return validateRequest(r) }

// StateRequest is the body of PATCH /api/tickets/{id}/state.
type StateRequest struct {
	State domain.TicketState `json:"state" validate:"oneof=backlog inprogress review finished"`
}

func (r StateRequest) Validate() []FieldError { return validateRequest(r) }

// DueDateLayout is the wall-clock form the server's fromisoformat accepts.
// It carries no zone: the server compares it against its own naive now().
const DueDateLayout = "2006-01-02T15:04:05"

// DueDateRequest is the body of PATCH /api/tickets/{id}/duedate.
type DueDateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02T15:04:05"`
}

// NewDueDateRequest formats t as local wall-clock time.
func NewDueDateRequest(t time.Time) DueDateRequest {
	return DueDateRequest{Date: t.In(time.Local).Format(DueDateLayout)}
}

func (r DueDateRequest) Validate() []FieldError { return validateRequest(r) }

// GraphRequest creates or updates a graph.
type GraphRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description"`
}

func (r GraphRequest) Validate() []FieldError { return validateRequest(r) }

// NodeRequest creates or updates a graph node.
type NodeRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description"`
}

func (r NodeRequest) Validate() []FieldError { return validateRequest(r) }

// noBody is sent on mutations whose path carries all the arguments.
type noBody struct{}

func (noBody) Validate() []FieldError { return nil }

func validateRequest(v any) []FieldError {
	err := requestValidate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Property: fe.Field(), Message: describe(fe)})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "min":
		return "Must be at least " + fe.Param() + " characters."
	case "max":
		return "Must be at most " + fe.Param() + " characters."
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "datetime":
		return "Enter a valid date."
	}
	return "Invalid value."
}

package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

// Builder helps construct consistent HTTP responses.
type Builder struct {
	ctx     echo.Context
	status  int
	data    any
	err     error
	message string
	total   *int
	page    *int
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Total   *int       `json:"total,omitempty"`
	Page    *int       `json:"page,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
}

// New instantiates a Builder for the provided request context.
func New(ctx echo.Context) *Builder {
	return &Builder{ctx: ctx, status: http.StatusOK}
}

// WithStatus overrides the response status code.
func (b *Builder) WithStatus(status int) *Builder {
	if status > 0 {
		b.status = status
	}
	return b
}

// WithData attaches a success payload.
func (b *Builder) WithData(data any) *Builder {
	b.data = data
	return b
}

// WithMessage sets the human-readable message.
func (b *Builder) WithMessage(message string) *Builder {
	b.message = message
	return b
}

// WithTotal reports the number of matching records.
func (b *Builder) WithTotal(total int) *Builder {
	b.total = &total
	return b
}

// WithPage reports the page number of a paginated listing.
func (b *Builder) WithPage(page int) *Builder {
	b.page = &page
	return b
}

// WithError records an error to be rendered.
func (b *Builder) WithError(err error) *Builder {
	b.err = err
	return b
}

// Build finalises and emits the HTTP response.
func (b *Builder) Build() error {
	if b.err != nil {
		return b.buildError()
	}
	return b.buildSuccess()
}

func (b *Builder) buildSuccess() error {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.ctx.JSON(b.status, Envelope{
		Success: true,
		Data:    b.data,
		Message: b.message,
		Total:   b.total,
		Page:    b.page,
	})
}

func (b *Builder) buildError() error {
	appErr := errorbank.From(b.err)
	status := b.status
	if status < 400 {
		status = appErr.StatusCode()
	}
	return b.ctx.JSON(status, Envelope{
		Success: false,
		Message: appErr.Message(),
		Error: &ErrorBody{
			Kind:    string(appErr.Kind()),
			Details: appErr.Details(),
		},
	})
}

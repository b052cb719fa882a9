package domain

import (
	"github.com/go-playground/validator/v10"
)

// MaxTitleLength bounds bookmark titles.
const MaxTitleLength = 200

// CreateInput carries the user-supplied fields of a new bookmark.
type CreateInput struct {
	Title string `json:"title" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,url"`
}

var validate = validator.New()

// Validate checks the input against the bookmark constraints and
// returns a ValidationError naming the first violated field/rule.
// No remote call is ever made for invalid input.
func (in CreateInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok || len(errs) == 0 {
			return &ValidationError{Field: "input", Reason: "invalid input"}
		}
		return describeViolation(errs[0])
	}
	return nil
}

func describeViolation(fe validator.FieldError) *ValidationError {
	switch fe.StructField() {
	case "Title":
		if fe.Tag() == "max" {
			return &ValidationError{Field: "title", Reason: "title must be less than 200 characters"}
		}
		return &ValidationError{Field: "title", Reason: "title is required"}
	case "URL":
		if fe.Tag() == "url" {
			return &ValidationError{Field: "url", Reason: "must be a valid URL"}
		}
		return &ValidationError{Field: "url", Reason: "url is required"}
	}
	return &ValidationError{Field: fe.Field(), Reason: "invalid value"}
}

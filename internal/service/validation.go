package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sidupak-api/internal/credit"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// fromValidatorErrors turns struct validation failures on query DTOs into a field-indexed error.
func fromValidatorErrors(message string, err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	verr := credit.NewValidationError(message)
	for _, fe := range fieldErrors {
		verr.Add(lowerFirst(fe.Field()), queryRuleMessage(fe))
	}
	return verr
}

func queryRuleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

func lowerFirst(value string) string {
	if value == "" {
		return value
	}
	switch value {
	case "SemesterID":
		return "semesterId"
	case "DosenID":
		return "dosenId"
	case "ActorID":
		return "actorId"
	case "EntityID":
		return "entityId"
	}
	return strings.ToLower(value[:1]) + value[1:]
}

package handler

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/middleware"
	"github.com/noah-isme/sidupak-api/internal/service"
)

var errNotMultipart = errors.New("request body must be multipart/form-data")

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   userIDFromContext(c),
		Role: credit.ParseRole(userRoleFromContext(c)),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, err
	}
	result := uint(parsed)
	return &result, nil
}

// multipartPayload splits a multipart body into the form values and the optional evidence file.
func multipartPayload(c *fiber.Ctx) (credit.Payload, *multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, errNotMultipart
	}

	payload := make(credit.Payload, len(form.Value))
	for key, values := range form.Value {
		payload[key] = values
	}

	var file *multipart.FileHeader
	if files := form.File["file"]; len(files) > 0 {
		file = files[0]
	}

	return payload, file, nil
}

// categoryOf reads the category form field, accepting both wire spellings.
func categoryOf(payload credit.Payload) string {
	if category := payload.Get("kategori"); category != "" {
		return category
	}
	return payload.Get("category")
}

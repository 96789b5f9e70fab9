package credit

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// Payload is a raw multipart form body; every value arrives as a string.
type Payload map[string][]string

// Get returns the last trimmed value submitted for key.
func (p Payload) Get(key string) string {
	values := p[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[len(values)-1])
}

// Validator turns a raw payload into typed fields for one category of a family.
type Validator interface {
	Categories() []Category
	Validate(category Category, payload Payload) (Fields, error)
}

type normalizer interface {
	normalize()
}

// activitySchemas maps each teaching-execution category to the struct its payload decodes
// into. BAHAN_PENGAJARAN branches on jenisProduk.
var activitySchemas = map[Category]func(Payload) Fields{
	CategoryTeaching:             func(Payload) Fields { return &Teaching{} },
	CategorySeminarSupervision:   func(Payload) Fields { return &SeminarSupervision{} },
	CategoryFieldworkSupervision: func(Payload) Fields { return &FieldworkSupervision{} },
	CategoryThesisSupervision:    func(Payload) Fields { return &ThesisSupervision{} },
	CategoryFinalExamExaminer:    func(Payload) Fields { return &FinalExamExaminer{} },
	CategoryStudentMentoring:     func(Payload) Fields { return &StudentMentoring{} },
	CategoryProgramDevelopment:   func(Payload) Fields { return &ProgramDevelopment{} },
	CategoryTeachingMaterial: func(p Payload) Fields {
		if p.Get("jenisProduk") == ProductTextbook {
			return &Textbook{}
		}
		return &TeachingMaterial{}
	},
	CategoryScholarlyOration:   func(Payload) Fields { return &ScholarlyOration{} },
	CategoryStructuralPosition: func(Payload) Fields { return &StructuralPosition{} },
	CategoryLecturerMentoring:  func(Payload) Fields { return &LecturerMentoring{} },
	CategoryDatasering:         func(Payload) Fields { return &Datasering{} },
	CategorySelfDevelopment:    func(Payload) Fields { return &SelfDevelopment{} },
}

// Registry validates teaching-execution payloads against per-category schemas. Numeric
// form values are coerced before the struct rules run.
type Registry struct {
	decoder  *schema.Decoder
	validate *validator.Validate
}

// NewRegistry builds the category schema registry.
func NewRegistry() (*Registry, error) {
	decoder := schema.NewDecoder()
	decoder.SetAliasTag("form")
	decoder.IgnoreUnknownKeys(true)

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return isISODate(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("register isodate rule: %w", err)
	}
	if err := validate.RegisterValidation("rank", func(fl validator.FieldLevel) bool {
		_, ok := ParseRank(fl.Field().String())
		return ok
	}); err != nil {
		return nil, fmt.Errorf("register rank rule: %w", err)
	}
	if err := validate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		return isFinite(fl.Field().Float())
	}); err != nil {
		return nil, fmt.Errorf("register finite rule: %w", err)
	}

	return &Registry{decoder: decoder, validate: validate}, nil
}

// Categories lists the categories this registry accepts.
func (r *Registry) Categories() []Category {
	return ActivityCategories()
}

// Validate decodes and checks payload for category, returning every violation at once.
func (r *Registry) Validate(category Category, payload Payload) (Fields, error) {
	build, ok := activitySchemas[category]
	if !ok {
		return nil, fmt.Errorf("%q: %w", category, ErrUnrecognizedCategory)
	}

	target := build(payload)
	verr := NewValidationError(fmt.Sprintf("invalid %s payload", category))

	if err := r.decoder.Decode(target, trimmed(payload)); err != nil {
		var multi schema.MultiError
		if !errors.As(err, &multi) {
			return nil, fmt.Errorf("decode %s payload: %w", category, err)
		}
		for key, fieldErr := range multi {
			verr.Add(key, conversionMessage(fieldErr))
		}
	}

	if n, ok := target.(normalizer); ok {
		n.normalize()
	}

	if err := r.validate.Struct(target); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return nil, fmt.Errorf("validate %s payload: %w", category, err)
		}
		for _, fe := range fieldErrors {
			if verr.Has(fe.Field()) {
				continue
			}
			verr.Add(fe.Field(), ruleMessage(fe))
		}
	}

	if !verr.Empty() {
		return nil, verr
	}
	return target, nil
}

func trimmed(payload Payload) map[string][]string {
	out := make(map[string][]string, len(payload))
	for key, values := range payload {
		cleaned := make([]string, 0, len(values))
		for _, value := range values {
			cleaned = append(cleaned, strings.TrimSpace(value))
		}
		out[key] = cleaned
	}
	return out
}

func conversionMessage(err error) string {
	var conversion schema.ConversionError
	if errors.As(err, &conversion) {
		switch conversion.Type.Kind() {
		case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
			return "must be a whole number"
		case reflect.Float32, reflect.Float64:
			return "must be a number"
		}
	}
	return "is invalid"
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "eq":
		return "must be " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "isodate":
		return "must be a date (YYYY-MM-DD)"
	case "finite":
		return "must be a finite number"
	case "rank":
		return "must be one of ASISTEN_AHLI, LEKTOR, LEKTOR_KEPALA, GURU_BESAR"
	default:
		return "is invalid"
	}
}

func isFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

func isISODate(value string) bool {
	if _, err := time.Parse("2006-01-02", value); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

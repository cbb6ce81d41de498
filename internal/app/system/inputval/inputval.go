// Package inputval validates API request payloads using waffle/pantry/validate.
//
// Define a request struct with validate tags, decode the body into it and
// call Validate:
//
//	type openSessionRequest struct {
//	    Mode        string `json:"mode" validate:"required,sessionmode" label:"Mode"`
//	    DashboardID string `json:"dashboardId" validate:"max=100" label:"Dashboard"`
//	}
//
//	if res := inputval.Validate(req); res.HasErrors() {
//	    jsonutil.ValidationError(w, res.Fields())
//	    return
//	}
//
// The enum rules registered here accept the empty string; combine them with
// required when a value must be present.
package inputval

import (
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/stratadash/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// Result holds validation results with user-friendly messages.
type Result struct {
	Errors []FieldError
}

// FieldError is the validation error for a single field.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

// HasErrors reports whether validation failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// First returns the first error message, or "".
func (r *Result) First() string {
	if len(r.Errors) > 0 {
		return r.Errors[0].Message
	}
	return ""
}

// Fields returns the messages keyed by field name, for JSON error bodies.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		out[e.Field] = e.Message
	}
	return out
}

// Values accepted by the sessionmode, listsort and templatefilter rules.
var (
	sessionModes    = []string{"new", "edit"}
	listSorts       = []string{"updated", "created", "name"}
	templateFilters = []string{"only", "exclude"}
)

// enumRule builds a rule func accepting "" or any value in valid.
func enumRule(valid func(string) bool) func(any) bool {
	return func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		s = strings.TrimSpace(s)
		return s == "" || valid(s)
	}
}

var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New(validate.WithStopOnFirstError())

		customValidator.RegisterRuleFunc("widgettype", enumRule(func(s string) bool {
			return models.IsValidWidgetType(models.WidgetType(s))
		}), "widgettype")
		customValidator.RegisterRuleFunc("datasource", enumRule(func(s string) bool {
			return models.IsValidDataSource(models.DataSource(s))
		}), "datasource")
		customValidator.RegisterRuleFunc("visibility", enumRule(func(s string) bool {
			return models.IsValidVisibility(models.Visibility(s))
		}), "visibility")
		customValidator.RegisterRuleFunc("timerange", enumRule(func(s string) bool {
			return models.IsValidTimeRange(models.TimeRange(s))
		}), "timerange")
		customValidator.RegisterRuleFunc("compacttype", enumRule(func(s string) bool {
			return models.IsValidCompactType(models.CompactType(s))
		}), "compacttype")
		customValidator.RegisterRuleFunc("sessionmode", enumRule(func(s string) bool {
			return contains(sessionModes, s)
		}), "sessionmode")
		customValidator.RegisterRuleFunc("listsort", enumRule(func(s string) bool {
			return contains(listSorts, s)
		}), "listsort")
		customValidator.RegisterRuleFunc("templatefilter", enumRule(func(s string) bool {
			return contains(templateFilters, s)
		}), "templatefilter")
	})
	return customValidator
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Validate checks a struct against its validate tags. Optional label tags
// give fields user-friendly names in messages.
//
// Rules from pantry/validate: required, oneof=a b c, min=N, max=N.
// Rules registered here: widgettype, datasource, visibility, timerange,
// compacttype, sessionmode, listsort, templatefilter.
func Validate(s any) *Result {
	result := &Result{}

	err := getValidator().Struct(s)
	if err == nil {
		return result
	}

	labels := getFieldLabels(s)
	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			label := labels[e.Field]
			if label == "" {
				label = e.Field
			}
			result.Errors = append(result.Errors, FieldError{
				Field:   e.Field,
				Label:   label,
				Message: formatMessage(label, e.Rule, e.Param),
			})
		}
	}
	return result
}

// getFieldLabels maps field names (json name when tagged) to label tags.
func getFieldLabels(s any) map[string]string {
	labels := make(map[string]string)

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return labels
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			if n := strings.Split(tag, ",")[0]; n != "" && n != "-" {
				name = n
			}
		}
		if label := field.Tag.Get("label"); label != "" {
			labels[name] = label
		}
	}
	return labels
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func formatMessage(label, rule, param string) string {
	switch rule {
	case "required":
		return label + " is required."
	case "oneof", "enum":
		return label + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "min":
		return label + " must be at least " + param + " characters."
	case "max":
		return label + " must be at most " + param + " characters."
	case "widgettype":
		return label + " must be one of: " + joinValues(models.AllWidgetTypes()) + "."
	case "datasource":
		return label + " must be one of: " + joinValues(models.AllDataSources()) + "."
	case "visibility":
		return label + " must be one of: " + joinValues(models.AllVisibilities()) + "."
	case "timerange":
		return label + " must be one of: " + joinValues(models.AllTimeRanges()) + "."
	case "compacttype":
		return label + " must be vertical, horizontal, or none."
	case "sessionmode":
		return label + " must be new or edit."
	case "listsort":
		return label + " must be one of: " + joinValues(listSorts) + "."
	case "templatefilter":
		return label + " must be only or exclude."
	default:
		return label + " is invalid."
	}
}

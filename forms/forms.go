// Package forms decodes submitted form values and validates them into
// either an accepted struct or field-level error messages.
package forms

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/ajg/form"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/survey-audit/model"
	"github.com/pkg/errors"
)

// maxFormBytes caps url-encoded bodies.
const maxFormBytes = 1 << 20

// Errors maps a field name to its messages. A nil or empty Errors means
// the input was accepted.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func (e Errors) Get(field string) []string {
	return e[field]
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Err folds the messages into one error, fields in name order. It is nil
// when there are none.
func (e Errors) Err() error {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var result *multierror.Error
	for _, f := range fields {
		for _, msg := range e[f] {
			result = multierror.Append(result, fmt.Errorf("%s: %s", f, msg))
		}
	}
	return result.ErrorOrNil()
}

// Cleaner is implemented by forms that normalise their values before
// validation.
type Cleaner interface {
	Clean()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	v.RegisterValidation("question_kind", func(fl validator.FieldLevel) bool {
		return model.QuestionKind(fl.Field().String()).Valid()
	})
	return v
}

// Decode fills dst from url-encoded values. Keys dst does not declare, like
// a CSRF token, are skipped.
func Decode(values url.Values, dst any) error {
	d := form.NewDecoder(strings.NewReader(values.Encode()))
	d.IgnoreUnknownKeys(true)
	return errors.Wrap(d.Decode(dst), "form.decode")
}

// Validate checks v against its `validate` tags.
func Validate(v any) Errors {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"": {err.Error()}}
	}

	errs := Errors{}
	for _, fe := range verrs {
		errs.Add(fieldName(fe), message(fe))
	}
	return errs
}

// Bind parses the request body, url-encoded or multipart, into dst, cleans
// it and validates it. A non-nil error means the body could not be read at
// all.
func Bind(w http.ResponseWriter, r *http.Request, dst any) (Errors, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := parseBody(r); err != nil {
		return nil, errors.Wrap(err, "form.parse")
	}
	if err := Decode(r.PostForm, dst); err != nil {
		return nil, err
	}
	if c, ok := dst.(Cleaner); ok {
		c.Clean()
	}
	return Validate(dst), nil
}

func parseBody(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormBytes)
	}
	return r.ParseForm()
}

// fieldName drops the root struct from the namespace, keeping paths like
// answers[0].text for nested values.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if isString {
			return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "required_without_all", "excluded_with":
		return "Give exactly one of text, selection or option_id."
	case "oneof", "question_kind":
		return "Select a valid choice."
	}
	return "Enter a valid value."
}

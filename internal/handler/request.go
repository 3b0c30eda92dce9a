package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/go-playground/validator/v10"
)

// maxJSONBody caps JSON and urlencoded request bodies.
const maxJSONBody = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// formBinder is implemented by request types that also accept
// application/x-www-form-urlencoded or multipart bodies.
type formBinder interface {
	bindForm(form url.Values)
}

// decodeRequest fills dst from a JSON or form body and validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, op string, dst formBinder) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return domain.Wrap(err, domain.EINVALID, op, "Malformed form body")
		}
		dst.bindForm(r.PostForm)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxJSONBody); err != nil {
			return domain.Wrap(err, domain.EINVALID, op, "Malformed form body")
		}
		dst.bindForm(r.PostForm)
	default:
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dst); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return domain.Errorf(domain.ETOOLARGE, op, "Request body too large")
			}
			if errors.Is(err, io.EOF) {
				return domain.Invalid(op, "Request body is empty")
			}
			return domain.Wrap(err, domain.EINVALID, op, "Malformed JSON body")
		}
	}

	return validateStruct(op, dst)
}

// validateStruct converts validator failures into a domain.ValidationError.
func validateStruct(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Wrap(err, domain.EINVALID, op, "Invalid request")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "gte":
		return "Must be " + fe.Param() + " or more"
	case "lte":
		return "Must be " + fe.Param() + " or less"
	case "uuid":
		return "Must be a valid id"
	case "url":
		return "Must be a valid URL"
	default:
		return "Invalid value"
	}
}

// ClientIP extracts the client address, honoring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func optionalBool(form url.Values, key string) *bool {
	if !form.Has(key) {
		return nil
	}
	v := parseBool(form.Get(key))
	return &v
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

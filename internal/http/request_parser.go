package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"nexu/internal/core"
)

// flexAmount accepts an amount as a JSON number or as a string using either
// "." or "," as decimal separator. null and "" leave it empty.
type flexAmount string

var _ json.Unmarshaler = (*flexAmount)(nil)

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = flexAmount(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount must be a number or a string")
		}
		*a = flexAmount(n.String())
	}
	return nil
}

// positive parses a strictly positive amount.
func (a flexAmount) positive(field string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, core.Invalidf(field, "must be a positive decimal number")
	}
	return d, nil
}

// nonNegative parses an amount that may be zero. Empty means zero.
func (a flexAmount) nonNegative(field string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(string(a)), ",", ".")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, core.Invalidf(field, "must be a non-negative decimal number")
	}
	return d, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// readBody reads the whole (size-limited) request body.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, core.Invalidf("body", "could not read request body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, core.Invalidf("body", "request body is required")
	}
	return body, nil
}

// decodeJSON unmarshals body into dst and runs struct validation.
func (s *Server) decodeJSON(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.Invalidf(typeErr.Field, "has the wrong type")
		}
		return core.Invalidf("body", "malformed JSON")
	}
	return s.validateStruct(dst)
}

func (s *Server) readJSON(r *http.Request, dst any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	return s.decodeJSON(body, dst)
}

// validateStruct reports the first failing field as a core.ValidationError.
func (s *Server) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return core.Invalidf("body", "invalid request")
	}
	fe := verrs[0]
	return core.Invalidf(fe.Field(), "%s", validationMessage(fe))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

// sanitizeInput removes control characters except tab and newlines, and trims
// surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

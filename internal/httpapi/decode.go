package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/service"
	"github.com/BrandonDHaskell/campuswatch/internal/campuswatch/types"
)

// newValidator reports fields by their JSON names and knows the
// timestamp and I2C address formats devices send.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, ok := types.ParseTimestamp(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("i2caddr", func(fl validator.FieldLevel) bool {
		return service.ValidI2CAddress(fl.Field().String())
	})
	return v
}

// decodeError is a body that could not be turned into a valid request.
type decodeError struct {
	code   string
	msg    string
	fields []service.FieldError
}

func (e *decodeError) Error() string { return e.msg }

// decode reads a JSON or protobuf body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any, limit int64) error {
	body, err := readBody(r, limit)
	if err != nil {
		if errors.Is(err, errBodyTooLarge) {
			return &decodeError{code: "body_too_large", msg: err.Error()}
		}
		return &decodeError{code: "bad_body", msg: "could not read request body"}
	}

	if isProtobuf(r) {
		body, err = protoToJSON(body)
		if err != nil {
			return &decodeError{code: "bad_protobuf", msg: "invalid protobuf body"}
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &decodeError{code: "bad_json", msg: jsonErrorMessage(err)}
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &decodeError{code: "validation_failed", msg: "request failed validation", fields: fieldErrors(verrs)}
		}
		return &decodeError{code: "bad_request", msg: err.Error()}
	}
	return nil
}

func jsonErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type)
	}
	if strings.HasPrefix(err.Error(), "json: unknown field") {
		return strings.TrimPrefix(err.Error(), "json: ")
	}
	return "invalid JSON body"
}

func fieldErrors(verrs validator.ValidationErrors) []service.FieldError {
	out := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, service.FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "iso8601":
		return "must be an ISO-8601 timestamp"
	case "i2caddr":
		return "must look like 0x44"
	default:
		return "failed " + fe.Tag()
	}
}

func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *decodeError
	if !errors.As(err, &de) {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}
	status := http.StatusBadRequest
	if de.code == "body_too_large" {
		status = http.StatusRequestEntityTooLarge
	}
	reply(w, r, status, errorBody{Error: de.code, Message: de.msg, Fields: de.fields})
}

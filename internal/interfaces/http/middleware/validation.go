package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/venpus/mjshop-sub003/internal/interfaces/http/dto"
)

// SetupValidator makes field errors name the JSON (or query) field the client sent
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			default:
				return name
			}
		}
		return ""
	})
}

// HandleValidationError writes the 4xx response for a failed bind:
// REQUEST_TOO_LARGE when the body limit tripped, VALIDATION_ERROR with per-field details
// for tag failures, INVALID_JSON for undecodable bodies and BAD_REQUEST otherwise.
func HandleValidationError(c *gin.Context, err error) {
	requestID := GetRequestID(c)

	var (
		tooLarge   *http.MaxBytesError
		fieldErrs  validator.ValidationErrors
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		resp       dto.Response
		statusCode = http.StatusBadRequest
	)
	switch {
	case errors.As(err, &tooLarge):
		statusCode = http.StatusRequestEntityTooLarge
		resp = dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooLarge, "Request body too large", requestID)
	case errors.As(err, &fieldErrs):
		resp = dto.NewValidationErrorResponse("Request validation failed", requestID, fieldDetails(fieldErrs))
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		resp = dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Malformed JSON body", requestID)
	default:
		resp = dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, err.Error(), requestID)
	}
	SetErrorCode(c, resp.Error.Code)
	c.JSON(statusCode, resp)
}

func fieldDetails(errs validator.ValidationErrors) []dto.ValidationDetail {
	details := make([]dto.ValidationDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, dto.ValidationDetail{Field: e.Field(), Message: getValidationMessage(e)})
	}
	return details
}

// constraint messages keyed by validator tag; the tag parameter is appended
var constraintMessages = map[string]string{
	"oneof": "Must be one of: ",
	"gt":    "Must be greater than ",
	"gte":   "Must be greater than or equal to ",
	"lt":    "Must be less than ",
	"lte":   "Must be less than or equal to ",
}

func getValidationMessage(e validator.FieldError) string {
	if prefix, ok := constraintMessages[e.Tag()]; ok {
		return prefix + e.Param()
	}

	unit := ""
	if e.Kind() == reflect.String {
		unit = " characters"
	}
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		return "Must be at least " + e.Param() + unit
	case "max":
		return "Must be at most " + e.Param() + unit
	case "len":
		return "Must be exactly " + e.Param() + unit
	}
	return "Invalid value"
}

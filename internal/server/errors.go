package server

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/railzwaylabs/clubsettle/internal/errs"
	"github.com/railzwaylabs/clubsettle/pkg/db/pagination"
)

var (
	ErrInvalidRequest = errs.Validation("invalid_request")
	ErrUnauthorized   = errs.Unauthorized("unauthorized")
	ErrInvalidID      = errs.Validation("invalid_id")
)

var registerOnce sync.Once

// registerValidatorTagNames makes validator report json field names.
func registerValidatorTagNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.Split(f.Tag.Get(tag), ",")[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	})
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// AbortWithError renders err in the error envelope. Untyped errors are
// reported as internal_error; their message only shows in debug mode.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	if errors.Is(err, pagination.ErrInvalidPageToken) {
		err = errs.Validation("invalid_page_token")
	}

	body := gin.H{"success": false}
	status := http.StatusInternalServerError
	if e, ok := errs.As(err); ok {
		status = statusFor(e.Kind)
		body["error"] = e.Code
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
	} else {
		body["error"] = "internal_error"
		if gin.Mode() == gin.DebugMode {
			body["message"] = err.Error()
		}
	}
	body["status"] = status
	c.AbortWithStatusJSON(status, body)
}

// bindError turns binding failures into field-level validation errors.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidRequest.WithField("body", "malformed request")
	}
	out := ErrInvalidRequest
	for _, fe := range verrs {
		out = out.WithField(fe.Field(), fe.Tag())
	}
	return out
}

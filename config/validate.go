package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/waveofmymind/simple-db/core"
)

var ErrValidationFailed = errors.New("config validation failed")

// ValidationErrors maps option keys to their validation errors.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sb strings.Builder
	for _, f := range fields {
		for _, msg := range v[f] {
			if sb.Len() > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(f + ": " + msg)
		}
	}
	return sb.String()
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Validate checks opts against their struct tags.
func Validate(opts *core.Options) error {
	if opts == nil {
		return errors.Wrap(ErrValidationFailed, "nil options")
	}
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate config")
	}

	out := ValidationErrors{}
	for _, fe := range fieldErrs {
		key := fieldKey(fe)
		out[key] = append(out[key], message(fe))
	}
	return errors.Mark(out, ErrValidationFailed)
}

// fieldKey turns "Options.log.level" into "log.level".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_unless":
		return "is required for this driver"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	}
	return fmt.Sprintf("failed %q", fe.Tag())
}

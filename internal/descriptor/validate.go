package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var reverseDomainPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*(\.[A-Za-z0-9_-]+)+$`)

// validate is shared; building a validator is expensive and it is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their descriptor key, not the Go name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if sv, ok := field.Interface().(SDKVersion); ok {
			return sv.String()
		}
		return nil
	}, SDKVersion{})

	if err := v.RegisterValidation("reversedomain", func(fl validator.FieldLevel) bool {
		return IsReverseDomain(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsReverseDomain reports whether id looks like com.example.plugin.
func IsReverseDomain(id string) bool {
	return reverseDomainPattern.MatchString(id)
}

// Validate checks required fields and value ranges. Parse calls it; it is
// exported for descriptors built in code.
func (d *Descriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return &Error{Kind: KindMalformedDescriptor, Message: "descriptor validation failed", Cause: err}
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return &Error{
			Kind:    KindMalformedDescriptor,
			Field:   fieldPath(verrs[0]),
			Message: strings.Join(msgs, "; "),
		}
	}

	if d.SDKMinimumVersion.Compare(d.SDKVersion) > 0 {
		return malformed("sdkMinimumVersion", "sdkMinimumVersion %s is newer than sdkVersion %s",
			d.SDKMinimumVersion, d.SDKVersion)
	}
	return nil
}

// fieldPath strips the root type from a namespace like Descriptor.version.major.
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return "missing required field: " + field
	case "reversedomain":
		return fmt.Sprintf("%s must be a reverse-domain identifier, got %q", field, fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be non-negative, got %v", field, fe.Value())
	case "min":
		return fmt.Sprintf("%s needs at least %s entry", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, fe.Value())
	}
	return fmt.Sprintf("%s failed %s check", field, fe.Tag())
}

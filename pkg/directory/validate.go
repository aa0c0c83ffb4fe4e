package directory

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// contactFieldNames are the contact properties callers may set.
var contactFieldNames = []string{
	"first_name", "last_name", "position", "phone", "email", "location", "note", "url",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("printable", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), func(r rune) bool {
			return !unicode.IsPrint(r) && r != '\n' && r != '\t'
		}) < 0
	})
	return v
}

type areaInput struct {
	Name string `validate:"required,max=256,printable"`
	Note string `validate:"max=4096,printable"`
}

// contactUpdate splits caller fields into whitelisted properties and the
// url. Other keys are dropped.
func contactUpdate(fields map[string]string) (props map[string]any, url *string, dropped []string, err error) {
	props = map[string]any{}
	for k, v := range fields {
		if !isContactField(k) {
			dropped = append(dropped, k)
			continue
		}
		if k == "url" {
			if err := validate.Var(v, "omitempty,url,max=2048"); err != nil {
				return nil, nil, nil, fmt.Errorf("url: %w", err)
			}
			u := v
			url = &u
			continue
		}
		if err := validate.Var(v, "max=512,printable"); err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", k, err)
		}
		props[k] = v
	}
	return props, url, dropped, nil
}

func isContactField(k string) bool {
	for _, f := range contactFieldNames {
		if f == k {
			return true
		}
	}
	return false
}

package config

import (
	"net/netip"
	"path"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

// validatorInstance configures and returns the shared validator instance used
// by every module's parameter checks.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report fields by their parameter name rather than the Go field name.
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return strings.ToLower(field.Name)
			}
			return name
		})

		// remote_path accepts absolute, clean POSIX paths as used for file injection.
		_ = v.RegisterValidation("remote_path", func(fl validator.FieldLevel) bool {
			p := fl.Field().String()
			if p == "" || strings.Contains(p, "\x00") {
				return false
			}
			return strings.HasPrefix(p, "/") && path.Clean(p) == p
		})

		// host_addr accepts IPv4 and IPv6 literals, including zoned link-local
		// addresses such as fe80::1%eth0.
		_ = v.RegisterValidation("host_addr", func(fl validator.FieldLevel) bool {
			_, err := netip.ParseAddr(fl.Field().String())
			return err == nil
		})

		// host_name accepts any single host-table column: no whitespace, no
		// comment marker and no comma, which separates aliases.
		_ = v.RegisterValidation("host_name", func(fl validator.FieldLevel) bool {
			name := fl.Field().String()
			return name != "" && !strings.ContainsAny(name, "#,") && strings.IndexFunc(name, unicode.IsSpace) < 0
		})

		_ = v.RegisterValidation("module", func(fl validator.FieldLevel) bool {
			_, ok := moduleNames[fl.Field().String()]
			return ok
		})

		validateInst = v
	})

	return validateInst
}

// Package validator registers custom validation rules used by request binding.
package validator

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagNotBlank   = "notblank"   // Non-empty after trimming whitespace
	TagSafeString = "safestring" // No script injection patterns
)

// dangerousPatterns are rejected by the safestring rule. Matching is
// case-insensitive.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:",
	"' or '", "or 1=1", "-- ", "/*", "*/",
}

// RegisterRules installs the custom rules on gin's binding engine. It must be
// called once before the router starts serving.
func RegisterRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation(TagNotBlank, validateNotBlank); err != nil {
		return err
	}
	return v.RegisterValidation(TagSafeString, validateSafeString)
}

// validateNotBlank rejects strings that are empty or whitespace-only.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimFunc(fl.Field().String(), unicode.IsSpace) != ""
}

// validateSafeString rejects strings containing injection patterns.
func validateSafeString(fl validator.FieldLevel) bool {
	value := strings.ToLower(fl.Field().String())
	for _, pattern := range dangerousPatterns {
		if strings.Contains(value, pattern) {
			return false
		}
	}
	return true
}

package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register the language-hint validator. Registration should never fail
	// in normal operation, but panic loudly if it does.
	if err := Validate.RegisterValidation("language_hint", validateLanguageHint); err != nil {
		panic(fmt.Sprintf("failed to register language_hint validator: %v", err))
	}
}

// validateLanguageHint validates that a string is a plausible language hint:
// "auto" or a short identifier like "python", "c++", "c#", "objective-c".
func validateLanguageHint(fl validator.FieldLevel) bool {
	return ValidateLanguageHint(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// MaxLanguageHintLength bounds the language hint field
const MaxLanguageHintLength = 32

// ValidateLanguageHint validates a language hint string value. Empty is
// allowed; the analyzer treats it as "auto".
func ValidateLanguageHint(value string) error {
	if value == "" {
		return nil
	}
	if len(value) > MaxLanguageHintLength {
		return fmt.Errorf("invalid language: too long (max %d characters)", MaxLanguageHintLength)
	}
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '+', '#', '-', '_', '.':
			continue
		}
		return fmt.Errorf("invalid language: %q contains unsupported characters", value)
	}
	return nil
}

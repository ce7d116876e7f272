package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateFlags checks every flag for required fields and enforces case-insensitive
// uniqueness of flag names and of option labels within each flag.
func ValidateFlags(flags []Flag) error {
	var errs []error
	seenNames := make(map[string]string, len(flags))

	for _, flag := range flags {
		if err := validate.Struct(flag); err != nil {
			errs = append(errs, fmt.Errorf("flag %q: %w", flag.ID, err))
		}

		key := strings.ToLower(strings.TrimSpace(flag.Name))
		if key != "" {
			if otherID, dup := seenNames[key]; dup {
				errs = append(errs, fmt.Errorf("flag %q: name %q already used by flag %q", flag.ID, flag.Name, otherID))
			} else {
				seenNames[key] = flag.ID
			}
		}

		seenLabels := make(map[string]bool, len(flag.Options))
		for _, opt := range flag.Options {
			label := strings.ToLower(strings.TrimSpace(opt.Label))
			if label == "" {
				continue
			}
			if seenLabels[label] {
				errs = append(errs, fmt.Errorf("flag %q: duplicate option label %q", flag.ID, opt.Label))
			}
			seenLabels[label] = true
		}
	}

	return errors.Join(errs...)
}

// FindFlag returns the flag with the given id
func FindFlag(flags []Flag, id string) (Flag, bool) {
	for _, f := range flags {
		if f.ID == id {
			return f, true
		}
	}
	return Flag{}, false
}

// HasOption reports whether the flag defines the option id
func (f Flag) HasOption(optionID string) bool {
	for _, opt := range f.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

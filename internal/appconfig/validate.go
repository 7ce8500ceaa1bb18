package appconfig

import (
	"fmt"
	"regexp"
)

// defaultRegexMessage is used when a regex validator declares no message.
const defaultRegexMessage = "Value does not match regex"

// ValidateItemValue evaluates an item's declared validators against its
// effective value. Returns nil when the item passes. Empty values are not
// validated; emptiness is the save path's required-field concern, not a
// live-validation one.
func ValidateItemValue(item ConfigItem) []ItemValidationError {
	if item.Validation == nil || item.Validation.Regex == nil {
		return nil
	}
	value := item.EffectiveValue()
	if value == "" {
		return nil
	}

	regex := item.Validation.Regex
	matched, err := regexp.MatchString(regex.Pattern, value)
	if err != nil {
		return []ItemValidationError{{Message: fmt.Sprintf("Invalid regex pattern %q: %v", regex.Pattern, err)}}
	}
	if matched {
		return nil
	}

	message := regex.Message
	if message == "" {
		message = defaultRegexMessage
	}
	return []ItemValidationError{{Message: message}}
}

// EvaluateValidation runs every visible item's validators and collects the
// failures into the per-group overlay shape returned by the liveconfig
// endpoint. Hidden items and hidden groups are skipped; the user cannot see
// them, so errors there would be unresolvable.
func EvaluateValidation(groups []ConfigGroup) []GroupValidationErrors {
	var out []GroupValidationErrors
	for _, group := range groups {
		if group.IsHidden() {
			continue
		}
		var itemErrors []ItemValidationErrors
		for _, item := range group.Items {
			if item.IsHidden() {
				continue
			}
			errs := ValidateItemValue(item)
			if len(errs) == 0 {
				continue
			}
			itemErrors = append(itemErrors, ItemValidationErrors{
				Name:             item.Name,
				ValidationErrors: errs,
			})
		}
		if len(itemErrors) > 0 {
			out = append(out, GroupValidationErrors{
				Name:       group.Name,
				ItemErrors: itemErrors,
			})
		}
	}
	return out
}

// RequiredItems returns the names of required items that are visible and
// still empty. The save path rejects a tree while this list is non-empty.
func RequiredItems(groups []ConfigGroup) []string {
	var missing []string
	for _, group := range groups {
		if group.IsHidden() {
			continue
		}
		for _, item := range group.Items {
			if !item.Required || item.IsHidden() || item.ReadOnly {
				continue
			}
			if item.Repeatable {
				// A repeatable item satisfies required when any group bucket
				// holds at least one non-empty instance.
				satisfied := false
				for _, bucket := range item.ValuesByGroup {
					for _, v := range bucket {
						if v != "" {
							satisfied = true
						}
					}
				}
				if !satisfied {
					missing = append(missing, item.Name)
				}
				continue
			}
			if item.EffectiveValue() == "" {
				missing = append(missing, item.Name)
			}
		}
	}
	return missing
}

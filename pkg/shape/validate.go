package shape

import "sort"

// Shape maps field names to their expected types. Every listed field is
// required; fields not listed are ignored.
type Shape map[string]Type

// Validate checks that data carries every field of s with the right type.
// Failures are reported in field-name order.
func Validate(s Shape, data map[string]any) error {
	if len(s) == 0 {
		return nil
	}

	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value, exists := data[key]
		if !exists {
			errs = append(errs, &ValidationError{Key: key, Reason: "required"})
			continue
		}
		if err := s[key].Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

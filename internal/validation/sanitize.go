package validation

import (
	"fmt"
	"reflect"

	"github.com/eventsignup/server/internal/sanitize"
)

// Sanitize trims and strips markup from every string field of dto, except
// fields tagged `sanitize:"-"`. Handlers call it right before persisting.
func Sanitize(dto any) error {
	return stripMarkup(dto)
}

func stripMarkup(dto any) error {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("validation: expected pointer to struct, got %T", dto)
	}

	elem := v.Elem()
	typ := elem.Type()
	for i := 0; i < elem.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() || field.Tag.Get("sanitize") == "-" {
			continue
		}
		value := elem.Field(i)
		switch value.Kind() {
		case reflect.String:
			value.SetString(sanitize.Plain(value.String()))
		case reflect.Slice:
			if value.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < value.Len(); j++ {
				item := value.Index(j)
				item.SetString(sanitize.Plain(item.String()))
			}
		}
	}
	return nil
}

package transport

import (
	"net/http"
	"reflect"
	"strings"
)

func bindForm(r *http.Request, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidDestination
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("form")
		if name == "" {
			name = strings.Split(field.Tag.Get("json"), ",")[0]
		}
		if name == "" || name == "-" || field.Type.Kind() != reflect.String {
			continue
		}
		if _, ok := r.Form[name]; !ok {
			continue
		}
		v.Field(i).SetString(r.FormValue(name))
	}
	return nil
}

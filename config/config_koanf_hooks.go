package config

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

func nameServerTypeHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() == reflect.String &&
			t == reflect.TypeOf(NameServer{}) {
			return ParseNameServer(data.(string))
		}

		return data, nil
	}
}

func durationTypeHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() == reflect.String &&
			t == reflect.TypeOf(Duration(0)) {
			duration, err := time.ParseDuration(data.(string))
			if err == nil {
				return Duration(duration), nil
			}
		}

		return data, nil
	}
}

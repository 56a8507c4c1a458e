// Package configloader keeps one configuration instance per Go type so the
// daemon, the CLI and shared packages such as logging can reach their
// settings without importing each other.
//
//	configloader.SetConfig(&logging.Config{Level: "debug"})
//	cfg := configloader.MustGetConfig[*logging.Config]()
package configloader

import (
	"fmt"
	"reflect"
	"sync"
)

var registry sync.Map // reflect.Type -> instance

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// RegisterConfig registers cfg as the instance of type T.
// It panics if T is already registered.
func RegisterConfig[T any](cfg T) {
	t := typeKey[T]()
	if _, loaded := registry.LoadOrStore(t, cfg); loaded {
		panic(fmt.Sprintf("config already registered for type %v", t))
	}
}

// SetConfig registers cfg as the instance of type T, replacing any
// previous registration.
func SetConfig[T any](cfg T) {
	registry.Store(typeKey[T](), cfg)
}

// MustGetConfig returns the instance of type T and panics when none is
// registered.
func MustGetConfig[T any]() T {
	cfg, ok := TryGetConfig[T]()
	if !ok {
		panic(fmt.Sprintf("no config registered for type %v", typeKey[T]()))
	}
	return cfg
}

// TryGetConfig returns the instance of type T, if any.
func TryGetConfig[T any]() (T, bool) {
	if val, ok := registry.Load(typeKey[T]()); ok {
		return val.(T), true
	}
	var zero T
	return zero, false
}

// UnregisterConfig drops the instance of type T.
func UnregisterConfig[T any]() {
	registry.Delete(typeKey[T]())
}

package core

import (
	"fmt"
	"sort"
)

// Decoder rebuilds a container from its fragment; path locates the fragment
// in the enclosing document for error reports.
type Decoder func(fragment interface{}, path string) (Container, error)

var registry = make(map[string]Decoder)

// Register adds a container type. It is called from init and panics on a
// duplicate name.
func Register(name string, decoder Decoder) {
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("core: container type %q registered twice", name))
	}
	registry[name] = decoder
}

func Registered(name string) bool {
	_, ok := registry[name]
	return ok
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package main

import (
	"fmt"
	"strings"

	"github.com/danbne/velaxios-sub000/store"
)

// asset is the record edited by gridctl.
type asset struct {
	Name  string `cbor:"name"`
	Owner string `cbor:"owner,omitempty"`
}

func validateAsset(a asset) error {
	if strings.TrimSpace(a.Name) == "" {
		return &store.FieldError{Field: "name", Message: "required"}
	}
	if len(a.Name) > 64 {
		return &store.FieldError{Field: "name", Message: "longer than 64 characters"}
	}
	return nil
}

// withField returns a copy of a with field set to value.
func (a asset) withField(field, value string) (asset, error) {
	switch strings.ToLower(field) {
	case "name":
		a.Name = value
	case "owner":
		a.Owner = value
	default:
		return a, fmt.Errorf("unknown field %q (name, owner)", field)
	}
	return a, nil
}

package cli

import "fmt"

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type invalidIDError struct {
	kind string
	raw  string
}

func (e invalidIDError) Error() string {
	return fmt.Sprintf("invalid %s id: %q", e.kind, e.raw)
}

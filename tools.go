//go:build tools

package tools

// Tool dependencies, tracked as blank imports so `go mod tidy` keeps
// their versions pinned. mockery generates the committed mocks/
// packages from .mockery.yaml. Run from volley-go/:
//
//	go run github.com/vektra/mockery/v2
import (
	_ "github.com/vektra/mockery/v2"
)

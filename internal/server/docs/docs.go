// Package docs registers the OpenAPI document served under /swagger/.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

//go:embed swagger.json
var document string

type apiDoc struct{}

// ReadDoc returns the OpenAPI document.
func (apiDoc) ReadDoc() string {
	return document
}

func init() {
	swag.Register(swag.Name, apiDoc{})
}

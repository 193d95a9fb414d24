// package swagger serves the OpenAPI description of the HTTP API.
package swagger

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed openapi.yaml
var content embed.FS

// GetHandler serves the embedded files, so /openapi.yaml under the mount point
// returns the API description.
func GetHandler() (http.Handler, error) {
	subFS, err := fs.Sub(content, ".")
	if err != nil {
		return nil, err
	}

	return http.FileServer(http.FS(subFS)), nil
}

// Package docs serves the OpenAPI description and the Swagger UI.
package docs

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggest/swgui/v5emb"
)

//go:embed openapi.yaml
var OpenAPI []byte

const (
	specPath = "/openapi.yaml"
	uiPath   = "/api/docs/"
)

func Register(r gin.IRouter) {
	r.GET(specPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", OpenAPI)
	})
	ui := v5emb.New("Storefront API", specPath, uiPath)
	r.GET(uiPath+"*any", gin.WrapH(ui))
}

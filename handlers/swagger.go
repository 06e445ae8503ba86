package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.JSON(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>onlyoffice-bridge — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the public endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "onlyoffice-bridge", "version": "v0.1.0" },
  "paths": {
    "/api/v1/editor/config": {
      "get": {
        "summary": "Build the signed editor configuration for one (activity, group) document",
        "parameters": [
          { "name": "cmid", "in": "query", "required": true, "schema": {"type":"string"} },
          { "name": "group", "in": "query", "schema": {"type":"integer"} }
        ],
        "responses": { "200": { "description": "editor config, or offline download link" }, "404": { "description": "unknown activity" } }
      }
    },
    "/api/v1/documents/lock": {
      "post": {
        "summary": "Lock or unlock a document",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"cmid":{"type":"string"},"groupid":{"type":"integer"},"locked":{"type":"boolean"}}}}}},
        "responses": { "200": { "description": "lock state updated" }, "403": { "description": "missing lock capability" } }
      }
    },
    "/callback": {
      "post": {
        "summary": "Save notification from the document server",
        "parameters": [ { "name": "doc", "in": "query", "required": true, "schema": {"type":"string"} } ],
        "responses": { "200": { "description": "acknowledgement with error 0 or 1" } }
      }
    },
    "/files/{activity}/{area}/{itemid}/{filename}": {
      "get": { "summary": "Download a stored file", "responses": { "200": { "description": "file content" }, "404": { "description": "not found" } } }
    },
    "/api/v1/activities": {
      "post": { "summary": "Create an activity instance", "responses": { "201": { "description": "created" } } }
    },
    "/api/v1/templates/{format}": {
      "put": { "summary": "Install a site-level blank template", "responses": { "201": { "description": "installed" } } }
    },
    "/api/v1/maintenance/dedup-keys": {
      "post": { "summary": "Re-key documents with colliding keys", "responses": { "200": { "description": "sweep result" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`

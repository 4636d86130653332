package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// Param documents one query parameter of a read operation.
type Param struct {
	Name        string
	Type        string // integer, number or string
	Description string
	Minimum     *float64
	Maximum     *float64
	// Repeated parameters may be given more than once.
	Repeated bool
}

// Operation documents one GET route. Path uses echo syntax, e.g.
// "/api/v1/case/:case_id/data".
type Operation struct {
	Path        string
	Summary     string
	Tag         string
	Params      []Param
	PathTypes   map[string]string // path param name to type; string when absent
	ResultRef   string            // component schema of the 200 body
	MayNotExist bool              // documents a 404
}

// Generator builds an OpenAPI 3.0 document from registered operations.
type Generator struct {
	title   string
	version string
	ops     []Operation
	schemas map[string]interface{}
}

func NewGenerator(title, version string) *Generator {
	return &Generator{
		title:   title,
		version: version,
		schemas: map[string]interface{}{"ErrorDetail": errorDetailSchema()},
	}
}

// Add registers operations.
func (g *Generator) Add(ops ...Operation) {
	g.ops = append(g.ops, ops...)
}

// Schema registers a named component schema.
func (g *Generator) Schema(name string, schema map[string]interface{}) {
	g.schemas[name] = schema
}

// Paths returns the documented echo paths, sorted.
func (g *Generator) Paths() []string {
	out := make([]string, len(g.ops))
	for i, op := range g.ops {
		out[i] = op.Path
	}
	sort.Strings(out)
	return out
}

// GenerateSpec produces the OpenAPI document as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]interface{}, len(g.ops))
	for _, op := range g.ops {
		paths[openAPIPath(op.Path)] = map[string]interface{}{
			"get": g.buildOperation(op),
		}
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"paths": paths,
		"components": map[string]interface{}{
			"schemas": g.schemas,
		},
	}
}

func (g *Generator) buildOperation(op Operation) map[string]interface{} {
	params := make([]map[string]interface{}, 0, len(op.Params)+1)
	for _, name := range pathParams(op.Path) {
		typ := op.PathTypes[name]
		if typ == "" {
			typ = "string"
		}
		params = append(params, map[string]interface{}{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]interface{}{"type": typ},
		})
	}
	for _, p := range op.Params {
		params = append(params, buildQueryParam(p))
	}

	responses := map[string]interface{}{
		"200": buildResponse("Success", op.ResultRef),
	}
	if len(params) > 0 {
		responses["400"] = buildResponse("Invalid parameter", "ErrorDetail")
	}
	if op.MayNotExist {
		responses["404"] = buildResponse("Not found", "ErrorDetail")
	}

	out := map[string]interface{}{
		"summary":     op.Summary,
		"operationId": operationID(op.Path),
		"parameters":  params,
		"responses":   responses,
	}
	if op.Tag != "" {
		out["tags"] = []string{op.Tag}
	}
	return out
}

func buildQueryParam(p Param) map[string]interface{} {
	schema := map[string]interface{}{"type": p.Type}
	if p.Minimum != nil {
		schema["minimum"] = *p.Minimum
	}
	if p.Maximum != nil {
		schema["maximum"] = *p.Maximum
	}
	if p.Repeated {
		schema = map[string]interface{}{"type": "array", "items": schema}
	}
	param := map[string]interface{}{
		"name":   p.Name,
		"in":     "query",
		"schema": schema,
	}
	if p.Description != "" {
		param["description"] = p.Description
	}
	if p.Repeated {
		param["explode"] = true
	}
	return param
}

func buildResponse(description, schemaRef string) map[string]interface{} {
	if schemaRef == "" {
		return map[string]interface{}{"description": description}
	}
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{
					"$ref": "#/components/schemas/" + schemaRef,
				},
			},
		},
	}
}

func errorDetailSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"detail": map[string]interface{}{"type": "string"},
		},
		"required": []string{"detail"},
	}
}

// openAPIPath rewrites ":name" segments as "{name}".
func openAPIPath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

func pathParams(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if strings.HasPrefix(s, ":") {
			out = append(out, s[1:])
		}
	}
	return out
}

// operationID derives a stable id such as "get_case_case_id_data".
func operationID(path string) string {
	var parts []string
	for _, s := range strings.Split(path, "/") {
		s = strings.TrimPrefix(s, ":")
		if s == "" || s == "api" || s == "v1" {
			continue
		}
		parts = append(parts, strings.NewReplacer("-", "_", ".", "_").Replace(s))
	}
	if len(parts) == 0 {
		return "get_root"
	}
	return "get_" + strings.Join(parts, "_")
}

// swaggerUIHTML loads the document relative to the docs page.
const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>VitalLab API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" >
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; background: #fafafa; }
  </style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "openapi.json",
      dom_id: '#swagger-ui',
      deepLinking: true,
      presets: [
        SwaggerUIBundle.presets.apis,
        SwaggerUIBundle.SwaggerUIStandalonePreset
      ],
      layout: "BaseLayout"
    })
  </script>
</body>
</html>`

// RegisterRoutes registers the document and the Swagger UI page.
func (g *Generator) RegisterRoutes(group *echo.Group) {
	spec := g.GenerateSpec()
	group.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, spec)
	})
	group.GET("/docs", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
}

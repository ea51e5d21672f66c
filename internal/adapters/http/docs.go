package http

import (
	"context"
	"os"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

// OpenAPIPath is where SetupDocs reads the document from, relative to the working directory.
var OpenAPIPath = "api/openapi.yaml"

const redocHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Pulpuluck API</title>
  <style>body{margin:0;padding:0}</style>
</head>
<body>
  <redoc spec-url="/docs/openapi.json" hide-download-button></redoc>
  <script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>`

// apiDoc holds the parsed document. It is loaded on first request so the
// server starts even when the file is missing.
type apiDoc struct {
	once sync.Once
	yaml []byte
	json []byte
	err  error
}

func (d *apiDoc) load() error {
	d.once.Do(func() {
		data, err := os.ReadFile(OpenAPIPath)
		if err != nil {
			d.err = err
			return
		}
		doc, err := openapi3.NewLoader().LoadFromData(data)
		if err != nil {
			d.err = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			d.err = err
			return
		}
		js, err := doc.MarshalJSON()
		if err != nil {
			d.err = err
			return
		}
		d.yaml, d.json = data, js
	})
	return d.err
}

// SetupDocs registers the reference page at /docs and the validated OpenAPI
// document at /docs/openapi.yaml and /docs/openapi.json.
func SetupDocs(app *fiber.App) {
	doc := &apiDoc{}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(redocHTML)
	})

	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		if err := doc.load(); err != nil {
			LoggerFromCtx(c.UserContext()).Error("openapi document unavailable", "path", OpenAPIPath, "error", err)
			return errNotFound(c, "openapi document not available")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(doc.yaml)
	})

	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		if err := doc.load(); err != nil {
			LoggerFromCtx(c.UserContext()).Error("openapi document unavailable", "path", OpenAPIPath, "error", err)
			return errNotFound(c, "openapi document not available")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(doc.json)
	})
}

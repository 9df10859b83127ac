//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// apiDoc is a hand-maintained OpenAPI 2.0 outline of the routes.
const apiDoc = `{
  "swagger": "2.0",
  "info": {"title": "vLLM playground API", "version": "1.0",
    "description": "Manage a local vLLM server, chat with it and benchmark it."},
  "basePath": "/",
  "schemes": ["http"],
  "paths": {
    "/api/status": {"get": {"tags": ["server"], "summary": "Server status", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}},
    "/api/start": {"post": {"tags": ["server"], "summary": "Start the vLLM server", "consumes": ["application/json"], "responses": {"200": {"description": "OK"}, "400": {"description": "Already running"}}}},
    "/api/stop": {"post": {"tags": ["server"], "summary": "Stop the vLLM server", "responses": {"200": {"description": "OK"}, "400": {"description": "Not running"}}}},
    "/api/chat": {"post": {"tags": ["inference"], "summary": "Chat with the running model", "produces": ["application/json", "text/event-stream"], "responses": {"200": {"description": "OK"}, "400": {"description": "Server not running"}, "502": {"description": "Upstream unreachable"}}}},
    "/api/completion": {"post": {"tags": ["inference"], "summary": "Text completion", "responses": {"200": {"description": "OK"}, "400": {"description": "Server not running"}}}},
    "/api/models": {"get": {"tags": ["models"], "summary": "List models", "responses": {"200": {"description": "OK"}}}},
    "/api/config/last": {"get": {"tags": ["server"], "summary": "Last started config", "responses": {"200": {"description": "OK"}, "404": {"description": "None"}}}},
    "/api/sanity": {"get": {"tags": ["server"], "summary": "Entrypoint sanity report", "responses": {"200": {"description": "OK"}}}},
    "/api/benchmark/start": {"post": {"tags": ["benchmark"], "summary": "Start a benchmark", "responses": {"200": {"description": "OK"}, "400": {"description": "Rejected"}}}},
    "/api/benchmark/status": {"get": {"tags": ["benchmark"], "summary": "Benchmark status", "responses": {"200": {"description": "OK"}}}},
    "/api/benchmark/stop": {"post": {"tags": ["benchmark"], "summary": "Stop the benchmark", "responses": {"200": {"description": "OK"}, "400": {"description": "Not running"}}}}
  }
}`

type apiSpec struct{}

func (apiSpec) ReadDoc() string { return apiDoc }

func init() {
	swag.Register(swag.Name, apiSpec{})
}

// MountSwagger serves the Swagger UI at /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

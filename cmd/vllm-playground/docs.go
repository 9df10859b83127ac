package main

// General API documentation for swaggo. The handlers in internal/httpapi carry
// the per-route annotations; build with -tags=swagger to serve /swagger/.
//
// @title           vLLM playground API
// @version         1.0
// @description     Run a local vLLM server, chat with it, stream its logs and benchmark it.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

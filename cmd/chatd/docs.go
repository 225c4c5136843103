package main

// General API documentation for swaggo. Regenerate with `swag init` and
// build with -tags swagger to serve it under /swagger/.
//
// @title           chatd API
// @version         1.0
// @description     HTTP API for on-device chat backed by a single local LLM.
//
// @contact.name   chatd maintainers
// @contact.url    https://github.com/your-org/chatd
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http

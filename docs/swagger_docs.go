// Package docs provides Swagger documentation for the netsweep API.
//
// This file carries the general API information; endpoint annotations
// live on the handlers themselves. Run `swag init` to regenerate the
// OpenAPI specification files under ./swagger.
//
//go:generate swag init -g swagger_docs.go -d .,../internal/api -o ./swagger --parseDependency --parseInternal
package docs

// @title netsweep API
// @version 0.1.0
// @description Network sweep service for bounded-concurrency host and port reconnaissance
// @description
// @description ## Features
// @description - **Host sweeps**: ICMP echo probing across address ranges, CIDR blocks, and masked networks
// @description - **Port sweeps**: TCP connect probing across port ranges with service name resolution
// @description - **Real-time Updates**: WebSocket streaming of sweep progress and completion
// @description - **Scheduling**: Recurring sweeps driven by cron expressions
// @description - **Monitoring & Observability**: Built-in metrics, structured logging, and health checks
// @description
// @description ## Authentication
// @description Endpoints under /api/v1 require API key authentication when it is enabled.
// @description Include your API key in the `X-API-Key` header.
// @description Public endpoints (health, version, metrics, documentation) do not require authentication.
//
// @security ApiKeyAuth
//
// @contact.name netsweep
// @contact.url https://github.com/anstrom/netsweep
//
// @license.name MIT
// @license.url https://github.com/anstrom/netsweep/blob/main/LICENSE
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for authentication

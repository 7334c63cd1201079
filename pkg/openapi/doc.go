// Package openapi derives form configs from OpenAPI 3 request bodies using
// kin-openapi.
package openapi

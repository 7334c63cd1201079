// Package testsupport holds fixtures shared by package tests: deterministic
// registries and schema loading.
package testsupport

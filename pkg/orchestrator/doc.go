// Package orchestrator wires the schema source → transformer → registry →
// renderer pipeline behind a single Generate call, for callers that want a
// rendered form without assembling the pieces themselves.
package orchestrator

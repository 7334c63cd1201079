// Package form holds the declarative form model and the pure validation
// functions that operate on it. Nothing in this package keeps state or
// performs I/O: a Field plus a Value is all a rule needs.
//
// Values are a tagged variant (null, string, number, bool, list of strings)
// so validation and normalization dispatch on the stored kind instead of
// inspecting runtime types. Rules run in a fixed priority order (required,
// minLength, maxLength, pattern) and only the first failure is reported.
package form

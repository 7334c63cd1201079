// Package registry manages live form instances keyed by form id.
//
// A Registry is an explicit service object: callers construct one, share it
// between the renderer and the host, and route every mutation through its
// methods. Instance lifecycle follows initialize → mutate → validate →
// submit/reset → remove. SetFieldValue validates incrementally (only the
// written field); ValidateForm and SubmitForm validate the whole form.
package registry

// Package render defines the renderer contract and the View snapshot handed
// to renderers. Concrete renderers live under pkg/renderers.
package render

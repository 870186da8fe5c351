// Package grid describes the rendering surface driven by the editing core.
// The core never lets the surface mutate rows; it pushes atomic
// add/update/remove transactions instead.
package grid

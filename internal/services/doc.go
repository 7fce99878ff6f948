// Package services defines the shared error taxonomy for the render
// pipeline and helpers for wrapping failures with component context.
package services

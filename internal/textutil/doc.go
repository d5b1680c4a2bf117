// Package textutil provides small text helpers, primarily filename
// sanitization for titles that end up as output paths.
package textutil

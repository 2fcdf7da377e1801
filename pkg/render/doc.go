// Package render turns notification messages into email bodies.
//
// Rendering is a pure function with no external dependencies: the same
// (subject, message, button label) input always produces byte-identical
// output, which keeps email content fully testable without fixtures.
//
// URL-like tokens (http://, https:// or bare www. prefixes) are stripped
// from the displayed text and rendered as call-to-action buttons instead,
// so recipients never see raw links in the body copy.
package render

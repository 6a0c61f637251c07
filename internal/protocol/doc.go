// Package protocol defines the wire message model for the classifier
// serial link: one JSON object per newline-terminated frame, selected
// into a tagged union by its "type" discriminator.
package protocol

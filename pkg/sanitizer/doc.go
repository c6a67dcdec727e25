// Package sanitizer normalizes free-text input before it is validated and stored.
//
// Normalization is idempotent and never fails: blank input becomes "".
package sanitizer

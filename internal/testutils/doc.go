// Package testutils provides helper functions for testing.
package testutils

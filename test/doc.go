// Package test provides infrastructure and utilities for integration testing.
//
// The Suite runs the real API server against an in-memory database and talks
// to it through the real API client. Outgoing mail goes to a recorder.
//
// Example Usage:
//
//	func TestExample(t *testing.T) {
//	    suite := test.NewSuite(t)
//	    defer suite.Cleanup()
//
//	    // Use suite.APIClient to make requests
//	    // Use suite.Mail to inspect purchase-order mails
//	}
package test

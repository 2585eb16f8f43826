// Package testutil contains fakes and builders shared by package tests: a
// fluent session builder and in-memory stand-ins for the weather, price,
// language and speech providers. They are not intended for production usage.
package testutil

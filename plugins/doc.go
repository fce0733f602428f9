// Package plugins hosts the domain plugin subpackages and the list of plugins
// the harness installs by default.
//
// A NOTE ON testhelper:
//   The subpackage plugins/testhelper drives plugin tools through a real
//   service with a pinned clock. It may import the clock and the store
//   implementation, so it is excluded from the architecture tests that keep
//   handlers pure. Do not import testhelper in production plugin code.
package plugins

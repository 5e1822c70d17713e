// File: reactor/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package reactor implements the readiness reactor of the bridge: a table of
// pending wakers keyed by (descriptor, direction). The reactor never polls
// the OS; readiness is reported into it by the host event loop through the
// bridge entry points.
package reactor

// File: stream/futures.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package stream

import "github.com/momentics/hostbridge/api"

// Read returns a future for one read attempt into buf. The future completes
// with the byte count (int); 0 signals end-of-stream.
func (c *Conn) Read(buf []byte) api.Future {
	return api.FutureFunc(func(cx *api.Context) (any, bool, error) {
		n, complete, err := c.PollRead(cx, buf)
		return n, complete, err
	})
}

// Write returns a future for one write attempt of p, completing with the
// byte count written. Callers needing write-to-completion loop themselves.
func (c *Conn) Write(p []byte) api.Future {
	return api.FutureFunc(func(cx *api.Context) (any, bool, error) {
		n, complete, err := c.PollWrite(cx, p)
		return n, complete, err
	})
}

// WriteAll returns a future that writes all of p, suspending between
// partial writes. It completes with the total count written.
func (c *Conn) WriteAll(p []byte) api.Future {
	written := 0
	return api.FutureFunc(func(cx *api.Context) (any, bool, error) {
		for written < len(p) {
			n, complete, err := c.PollWrite(cx, p[written:])
			if err != nil {
				return nil, true, err
			}
			if !complete {
				return nil, false, nil
			}
			written += n
		}
		return written, true, nil
	})
}

// File: driver/rowwire/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Asynchronous backend speaking the row-stream protocol over a bridge
// stream. Everything after Dial is non-blocking: the query future writes
// the request and reads response chunks through the reactor, suspending
// whenever the descriptor is not ready.

package rowwire

import (
	"errors"
	"fmt"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/driver"
	"github.com/momentics/hostbridge/stream"
)

// readChunk keeps response reads small so large result sets make several
// suspend/resume round-trips instead of one big copy.
const readChunk = 512

// Backend is an asynchronous rowwire client over one stream connection.
// Queries must not overlap on a single Backend: the protocol has no
// multiplexing, one request owns the connection until its Done frame.
type Backend struct {
	conn *stream.Conn
}

var _ driver.AsyncBackend = (*Backend)(nil)

// Dial connects to a rowwire server. Connecting blocks the calling
// goroutine; it is the one allowed blocking step, performed at setup.
func Dial(addr string) (*Backend, error) {
	conn, err := stream.Connect(addr)
	if err != nil {
		return nil, err
	}
	return &Backend{conn: conn}, nil
}

// Query returns a future that sends text and completes with the full
// driver.RawRows result set.
func (b *Backend) Query(text string) api.Future {
	return &queryFuture{
		conn: b.conn,
		out:  AppendFrame(nil, FrameQuery, []byte(text)),
	}
}

// Close closes the underlying stream.
func (b *Backend) Close() error { return b.conn.Close() }

const (
	phaseSend = iota
	phaseRecv
)

type queryFuture struct {
	conn  *stream.Conn
	phase int

	out  []byte // unsent remainder of the query frame
	in   []byte // unparsed response bytes
	rows driver.RawRows
}

func (f *queryFuture) Poll(cx *api.Context) (any, bool, error) {
	if f.phase == phaseSend {
		for len(f.out) > 0 {
			n, complete, err := f.conn.PollWrite(cx, f.out)
			if err != nil {
				return nil, true, err
			}
			if !complete {
				return nil, false, nil
			}
			f.out = f.out[n:]
		}
		f.phase = phaseRecv
	}

	var chunk [readChunk]byte
	for {
		// Drain whatever frames are already buffered before reading more.
		for {
			typ, payload, consumed, err := DecodeFrameFromBytes(f.in)
			if err != nil {
				return nil, true, wireErr(err)
			}
			if consumed == 0 {
				break
			}
			f.in = f.in[consumed:]

			switch typ {
			case FrameRow:
				cells, err := ParseRowPayload(payload)
				if err != nil {
					return nil, true, wireErr(err)
				}
				f.rows = append(f.rows, cells)
			case FrameDone:
				return f.rows, true, nil
			case FrameError:
				return nil, true, api.NewError(api.ErrCodeIO, "query failed").
					WithContext("server", string(payload))
			default:
				return nil, true, wireErr(fmt.Errorf("unexpected frame type 0x%02x", typ))
			}
		}

		n, complete, err := f.conn.PollRead(cx, chunk[:])
		if err != nil {
			return nil, true, err
		}
		if !complete {
			return nil, false, nil
		}
		if n == 0 {
			return nil, true, wireErr(errors.New("connection closed before Done frame"))
		}
		f.in = append(f.in, chunk[:n]...)
	}
}

func wireErr(err error) error {
	return api.NewError(api.ErrCodeIO, "rowwire protocol error").
		WithContext("cause", err.Error())
}

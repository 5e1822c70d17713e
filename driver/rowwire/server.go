// File: driver/rowwire/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reference rowwire server. Plain blocking I/O, one goroutine per
// connection: it stands on the far side of the bridge, so it has no
// non-blocking requirements. Used by tests and the query example.

package rowwire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"net"

	"github.com/momentics/hostbridge/driver"
)

// Handler resolves a query into its raw result set.
type Handler func(query string) (driver.RawRows, error)

// Serve accepts connections on l until the listener closes, answering each
// query frame with row frames and a terminating Done (or Error) frame.
func Serve(l net.Listener, h Handler) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go serveConn(conn, h)
	}
}

func serveConn(conn net.Conn, h Handler) {
	defer conn.Close()
	r := bufio.NewReader(conn)

	for {
		typ, payload, err := readFrame(r)
		if err != nil {
			return // client went away or spoke garbage; nothing to answer
		}
		if typ != FrameQuery {
			return
		}

		var out []byte
		rows, qerr := h(string(payload))
		if qerr != nil {
			out = AppendFrame(out, FrameError, []byte(qerr.Error()))
		} else {
			for _, row := range rows {
				out = AppendFrame(out, FrameRow, AppendRowPayload(nil, row))
			}
			out = AppendFrame(out, FrameDone, nil)
		}
		if _, err := conn.Write(out); err != nil {
			return
		}
	}
}

func readFrame(r *bufio.Reader) (byte, []byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	length := int(binary.BigEndian.Uint32(hdr[:]))
	if length < 1 || length-1 > MaxFramePayload {
		return 0, nil, errors.New("invalid frame length")
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return body[0], body[1:], nil
}

// File: driver/rowwire/rowwire_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rowwire_test

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/momentics/hostbridge/api"
	"github.com/momentics/hostbridge/bridge"
	"github.com/momentics/hostbridge/driver"
	"github.com/momentics/hostbridge/driver/rowwire"
	"github.com/momentics/hostbridge/hostloop"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte("SELECT 1")
	raw := rowwire.AppendFrame(nil, rowwire.FrameQuery, payload)

	typ, got, consumed, err := rowwire.DecodeFrameFromBytes(raw)
	if err != nil {
		t.Fatal(err)
	}
	if typ != rowwire.FrameQuery {
		t.Errorf("type = 0x%02x", typ)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q", got)
	}
	if consumed != len(raw) {
		t.Errorf("consumed = %d, want %d", consumed, len(raw))
	}
}

func TestDecodeIncompleteFrame(t *testing.T) {
	raw := rowwire.AppendFrame(nil, rowwire.FrameRow, []byte("abcdef"))
	for cut := 0; cut < len(raw); cut++ {
		typ, payload, consumed, err := rowwire.DecodeFrameFromBytes(raw[:cut])
		if err != nil {
			t.Fatalf("cut %d: %v", cut, err)
		}
		if typ != 0 || payload != nil || consumed != 0 {
			t.Fatalf("cut %d: partial frame decoded", cut)
		}
	}
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	var raw [5]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(rowwire.MaxFramePayload+2))
	raw[4] = rowwire.FrameRow
	if _, _, _, err := rowwire.DecodeFrameFromBytes(raw[:]); err == nil {
		t.Fatal("oversized frame accepted")
	}
}

func TestDecodeRejectsZeroLength(t *testing.T) {
	raw := make([]byte, 5)
	if _, _, _, err := rowwire.DecodeFrameFromBytes(raw); err == nil {
		t.Fatal("frame with no type byte accepted")
	}
}

func TestRowPayloadRoundTrip(t *testing.T) {
	cells := [][]byte{[]byte("one"), {}, []byte("three")}
	payload := rowwire.AppendRowPayload(nil, cells)

	got, err := rowwire.ParseRowPayload(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(cells) {
		t.Fatalf("cell count = %d", len(got))
	}
	for i := range cells {
		if string(got[i]) != string(cells[i]) {
			t.Errorf("cell %d = %q", i, got[i])
		}
	}
}

func TestParseRowPayloadTruncated(t *testing.T) {
	payload := rowwire.AppendRowPayload(nil, [][]byte{[]byte("cell")})
	for _, cut := range []int{2, len(payload) - 1} {
		if _, err := rowwire.ParseRowPayload(payload[:cut]); err == nil {
			t.Errorf("cut %d: truncated payload accepted", cut)
		}
	}
}

// startServer runs a rowwire server over a real listener and returns its
// address.
func startServer(t *testing.T, h rowwire.Handler) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	go rowwire.Serve(l, h)
	return l.Addr().String()
}

func startLoop(t *testing.T) *hostloop.Loop {
	t.Helper()
	loop, err := hostloop.New()
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()
	t.Cleanup(func() {
		loop.Stop()
		<-done
	})
	return loop
}

func TestQueryThroughHostLoop(t *testing.T) {
	kinds := []api.ColumnKind{api.KindInt64, api.KindText}
	addr := startServer(t, func(query string) (driver.RawRows, error) {
		if query != "SELECT id, name FROM words" {
			return nil, errors.New("unknown query")
		}
		var rows driver.RawRows
		for i, name := range []string{"zero", "one", "two"} {
			row, err := driver.EncodeRow(kinds, []any{int64(i), name})
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		return rows, nil
	})

	loop := startLoop(t)
	b, err := bridge.New(bridge.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()

	backend, err := rowwire.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	conn := driver.NewConn(b, backend, driver.Options{})
	defer conn.Close()

	results := make(chan api.Result[any], 1)
	loop.Call(func() {
		err := conn.Query("SELECT id, name FROM words", kinds,
			func(res api.Result[any]) { results <- res },
			loop.ReadRegistrar(), loop.WriteRegistrar())
		if err != nil {
			results <- api.Result[any]{Err: err}
		}
	})

	var res api.Result[any]
	select {
	case res = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("query did not complete")
	}
	if res.Err != nil {
		t.Fatal(res.Err)
	}

	rows := res.Value.([][]any)
	if len(rows) != 3 {
		t.Fatalf("row count = %d", len(rows))
	}
	if rows[1][0] != int64(1) || rows[1][1] != "one" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestQueryServerErrorDeliveredAsResult(t *testing.T) {
	addr := startServer(t, func(string) (driver.RawRows, error) {
		return nil, errors.New("relation does not exist")
	})

	loop := startLoop(t)
	b, err := bridge.New(bridge.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()

	backend, err := rowwire.Dial(addr)
	if err != nil {
		t.Fatal(err)
	}
	conn := driver.NewConn(b, backend, driver.Options{})
	defer conn.Close()

	results := make(chan api.Result[any], 1)
	loop.Call(func() {
		err := conn.Query("SELECT broken", nil,
			func(res api.Result[any]) { results <- res },
			loop.ReadRegistrar(), loop.WriteRegistrar())
		if err != nil {
			results <- api.Result[any]{Err: err}
		}
	})

	select {
	case res := <-results:
		apiErr, ok := res.Err.(*api.Error)
		if !ok || apiErr.Code != api.ErrCodeIO {
			t.Fatalf("expected IO error, got %v", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("query did not complete")
	}
}

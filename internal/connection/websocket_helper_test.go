package connection

// file: internal/connection/websocket_helper_test.go
//
// Connection tests elsewhere in this package drive the Loop over plain
// bytes.Buffer pairs, which is enough to exercise framing and dispatch
// but never touches a genuine duplex byte stream with independent
// read/write deadlines the way a real transport would. This helper
// spins up a loopback websocket connection (grounded in AleutianLocal's
// handlers/websocket.go upgrader usage) purely so one test can run the
// Loop over something that behaves like a real socket.

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
)

var wsTestUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsReadWriter adapts a *websocket.Conn into an io.ReadWriter by
// treating each Write as one binary message and buffering partial
// reads across Read calls, the way framing.Framing expects an
// ordinary stream rather than a message boundary.
type wsReadWriter struct {
	conn *websocket.Conn
	buf  []byte
}

func (w *wsReadWriter) Read(p []byte) (int, error) {
	for len(w.buf) == 0 {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return 0, io.EOF
		}
		w.buf = data
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *wsReadWriter) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// newWebsocketPipe dials a local httptest server that upgrades every
// request to a websocket, returning the server side as an
// io.ReadWriter (what the Loop under test reads/writes through) and
// the client side as an io.ReadWriter the test drives directly.
// Cleanup tears down both ends and the test server.
func newWebsocketPipe(t *testing.T) (server io.ReadWriter, client io.ReadWriter, cleanup func()) {
	t.Helper()

	serverConnCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsTestUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverConnCh <- conn
	}))

	wsURL := "ws" + srv.URL[len("http"):]
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	serverConn := <-serverConnCh

	cleanup = func() {
		_ = clientConn.Close()
		_ = serverConn.Close()
		srv.Close()
	}
	return &wsReadWriter{conn: serverConn}, &wsReadWriter{conn: clientConn}, cleanup
}

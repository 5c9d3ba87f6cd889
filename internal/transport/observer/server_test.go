package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/nodewar/internal/runner"
	"github.com/vovakirdan/nodewar/internal/world"
)

func testRunner() *runner.Runner {
	a := world.NewNode("a", "A", world.V(0, 0))
	b := world.NewNode("b", "B", world.V(1, 0))
	w := world.New("obs").AddNode(a).AddNode(b).AddConnection(world.NewConnection("ab", "a", "b", 1))
	return runner.New(w, runner.Options{})
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	return m
}

func waitActive(t *testing.T, s *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Active() != n {
		if time.Now().After(deadline) {
			t.Fatalf("active = %d, want %d", s.Active(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestObserverStreamsFrames(t *testing.T) {
	r := testRunner()
	s := NewServer(r, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	hello := readMessage(t, conn)
	if hello.Type != TypeHello || hello.WorldID != "obs" || hello.Tick != 0 {
		t.Fatalf("hello = %+v", hello)
	}
	if hello.Digest != r.Digest() {
		t.Errorf("hello digest = %q, want %q", hello.Digest, r.Digest())
	}

	if err := r.SubmitClaim("red", "a"); err != nil {
		t.Fatal(err)
	}
	f, err := r.Step()
	if err != nil {
		t.Fatal(err)
	}

	m := readMessage(t, conn)
	if m.Type != TypeTick || m.Tick != f.Tick || m.Digest != f.Digest {
		t.Fatalf("tick message = %+v, frame tick %d digest %s", m, f.Tick, f.Digest)
	}
	if len(m.Events) == 0 || len(m.Events) != len(f.Events) {
		t.Fatalf("events = %d, want %d", len(m.Events), len(f.Events))
	}
	if m.Events[len(m.Events)-1].Type != world.EventTickProcessed {
		t.Errorf("last event = %s", m.Events[len(m.Events)-1].Type)
	}
}

func TestObserverDisconnectReleasesSubscription(t *testing.T) {
	r := testRunner()
	s := NewServer(r, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)
	waitActive(t, s, 1)
	if r.Subscribers() != 1 {
		t.Fatalf("subscribers = %d", r.Subscribers())
	}

	conn.Close()
	waitActive(t, s, 0)

	// Closed subscriptions are pruned on the next broadcast.
	if _, err := r.Step(); err != nil {
		t.Fatal(err)
	}
	if r.Subscribers() != 0 {
		t.Errorf("subscribers after disconnect = %d", r.Subscribers())
	}
}

func TestFrameMessageOwners(t *testing.T) {
	w := testRunner().World()
	n, _ := w.Node("a")
	n.OwnerID = "red"
	n.Status = world.StatusClaimed
	w = w.SetNode(n)

	m := FrameMessage(runner.Frame{Tick: 4, World: w, Digest: "d", Paused: true})
	if m.Type != TypeTick || m.WorldID != "obs" || !m.Paused {
		t.Errorf("message = %+v", m)
	}
	if m.Owners["red"] != 1 {
		t.Errorf("owners = %v", m.Owners)
	}
}

func TestLoopbackOnly(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:5000", true},
		{"[::1]:5000", true},
		{"10.0.0.4:5000", false},
		{"example.com:80", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isLoopbackRemote(tc.addr); got != tc.want {
			t.Errorf("isLoopbackRemote(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}

	s := NewServer(testRunner(), nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.4:5000"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", rec.Code)
	}
}

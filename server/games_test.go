package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/bitterlily/codeboard/database"
	"github.com/bitterlily/codeboard/game"
	"github.com/bitterlily/codeboard/server/message"
)

func newTestServer(t *testing.T, name string) (*Server, string) {
	t.Helper()
	db, derr := database.Open(database.Config{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name),
	})
	if derr != nil {
		t.Fatalf("could not open test database: %s", derr)
	}
	if derr := database.Automigrate(db); derr != nil {
		t.Fatalf("could not migrate test database: %s", derr)
	}
	phrases := make([]string, 40)
	for i := range phrases {
		phrases[i] = fmt.Sprintf("phrase-%02d", i)
	}
	if derr := database.AddPhrases(db, "animals", phrases); derr != nil {
		t.Fatalf("could not seed phrases: %s", derr)
	}
	g, err := database.CreateStandaloneGame(db, game.DefaultConfig(), []string{"animals"})
	if err != nil {
		t.Fatalf("could not create game: %s", err)
	}
	return New(db, game.DefaultConfig(), "http://localhost:8080", "test-secret", logrus.New()), g.Code
}

// wsFrame keeps the payload raw so each test decodes only what it needs.
type wsFrame struct {
	Type message.Type
	Msg  json.RawMessage
}

func TestHandleSubscribe_DeliversRevealsAfterSnapshot(t *testing.T) {
	s, code := newTestServer(t, "ws-reveal")
	router := mux.NewRouter()
	router.HandleFunc("/api/game/{code}/ws", s.handleSubscribe)
	ts := httptest.NewServer(router)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/game/" + code + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("could not dial: %s", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var frame wsFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("could not read first frame: %s", err)
	}
	if frame.Type != message.Snapshot {
		t.Fatalf("first frame is %s instead of a snapshot", frame.Type)
	}
	var view game.BoardView
	if err := json.Unmarshal(frame.Msg, &view); err != nil {
		t.Fatalf("could not decode snapshot: %s", err)
	}

	// A delta the snapshot already covers must not be forwarded.
	s.Broadcast.Publish(code, &game.Delta{Version: view.Version})

	result, err := database.RevealCard(s.DB, code, 3)
	if err != nil {
		t.Fatalf("could not reveal card: %s", err)
	}
	s.publish(code, result.Version-1)

	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("could not read delta frame: %s", err)
	}
	if frame.Type != message.Delta {
		t.Fatalf("second frame is %s instead of a delta", frame.Type)
	}
	var delta game.Delta
	if err := json.Unmarshal(frame.Msg, &delta); err != nil {
		t.Fatalf("could not decode delta: %s", err)
	}
	if delta.Version != result.Version {
		t.Errorf("delta has version %d instead of %d", delta.Version, result.Version)
	}
	if len(delta.Revealed) != 1 || delta.Revealed[0].Index != 3 {
		t.Errorf("delta should carry exactly the revealed card 3, got %+v", delta.Revealed)
	}
}

func selectRequest(code, participant, body string) *http.Request {
	r := httptest.NewRequest("POST", "/api/game/"+code+"/select", strings.NewReader(body))
	r = mux.SetURLVars(r, map[string]string{"code": code})
	return r.WithContext(context.WithValue(r.Context(), participantKey, participant))
}

func TestHandleSelect_NoChangeDoesNotPublish(t *testing.T) {
	s, code := newTestServer(t, "select-noop")
	sub := s.Broadcast.Subscribe(code)
	defer s.Broadcast.Unsubscribe(sub)

	// Clearing an absent selection changes nothing and must stay silent.
	w := httptest.NewRecorder()
	s.handleSelect(w, selectRequest(code, "participant-anna", `{"Index": null}`))
	if w.Code != http.StatusOK {
		t.Fatalf("no-op clear answered %d", w.Code)
	}
	select {
	case delta := <-sub.C:
		t.Errorf("a no-op clear published a delta: %+v", delta)
	default:
	}

	// An actual selection still publishes.
	w = httptest.NewRecorder()
	s.handleSelect(w, selectRequest(code, "participant-anna", `{"Index": 3}`))
	if w.Code != http.StatusOK {
		t.Fatalf("selection answered %d", w.Code)
	}
	select {
	case delta := <-sub.C:
		if delta.Selections[3] != 1 {
			t.Errorf("delta reports %d selections on card 3 instead of 1", delta.Selections[3])
		}
	default:
		t.Errorf("a real selection did not publish a delta")
	}
}

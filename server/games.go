package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/bitterlily/codeboard/database"
	"github.com/bitterlily/codeboard/server/containers"
	"github.com/bitterlily/codeboard/server/message"
	"github.com/bitterlily/codeboard/utils"
)

const qrSize = 256

func (s *Server) handleGameCreate(w http.ResponseWriter, r *http.Request) {
	filter, err := containers.ParseTagFilter(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad tag filter json"})
		return
	}
	g, err := database.CreateStandaloneGame(s.DB, s.Config, filter.Tags)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"code": g.Code})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	start, err := containers.ParseSessionStart(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad session json"})
		return
	}
	sess, first, err := database.StartSession(s.DB, s.Config, start.Name, start.Tags)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": sess.ID,
		"code":    first.Code,
	})
}

func (s *Server) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseUint(mux.Vars(r), "id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad session id"})
		return
	}
	advance, err := containers.ParseAdvance(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad advance json"})
		return
	}
	g, created, err := database.NextGame(s.DB, s.Config, id, advance.Current)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":    g.Code,
		"created": created,
	})
}

func (s *Server) handleGameShow(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	privileged := r.URL.Query().Get("spymaster") == "true"
	view, err := database.Snapshot(s.DB, code, privileged)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	reveal, err := containers.ParseReveal(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad reveal json"})
		return
	}
	result, err := database.RevealCard(s.DB, code, reveal.Index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(code, result.Version-1)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	p, ok := participant(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	sel, err := containers.ParseSelect(r.Body)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad select json"})
		return
	}
	version, changed, err := database.SetSelection(s.DB, code, p, sel.Index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if changed {
		s.publish(code, version-1)
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"version": version})
}

// handleChanges is the pull half of sync. A client that is already
// current gets 204 and no body.
func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	cursor, err := strconv.ParseInt(r.URL.Query().Get("cursor"), 10, 64)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad cursor"})
		return
	}
	delta, err := database.ChangesSince(s.DB, code, cursor)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if delta == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, delta)
}

// handleSubscribe upgrades to a websocket and pushes deltas as they
// happen. The first frame is always a full snapshot so the client does
// not need a separate fetch; after that only the subscription channel
// writes to the connection.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	privileged := r.URL.Query().Get("spymaster") == "true"

	ws, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.WithError(err).Error("could not upgrade connection")
		return
	}
	defer ws.Close()

	// Subscribe before taking the snapshot. A mutation committed in
	// between then lands either in the snapshot or on the channel; the
	// version filter below drops the ones the snapshot already covers.
	sub := s.Broadcast.Subscribe(code)
	defer s.Broadcast.Unsubscribe(sub)

	view, err := database.Snapshot(s.DB, code, privileged)
	if err != nil {
		_ = ws.WriteJSON(message.Message{Type: message.Error, Msg: err.Error()})
		return
	}
	if err := ws.WriteJSON(message.Message{Type: message.Snapshot, Msg: view}); err != nil {
		s.Log.WithError(err).Error("could not write snapshot")
		return
	}

	go func() {
		for delta := range sub.C {
			if delta.Version <= view.Version {
				continue
			}
			if err := ws.WriteJSON(message.Message{Type: message.Delta, Msg: delta}); err != nil {
				s.Log.WithFields(logrus.Fields{
					"game":  code,
					"error": err,
				}).Info("subscriber write failed")
				s.Broadcast.Unsubscribe(sub)
				return
			}
		}
	}()

	// Clients send nothing meaningful; the read loop only notices
	// disconnects.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Log.WithError(err).Info("subscriber closed abnormally")
			}
			return
		}
	}
}

// handleShareCode renders a QR code pointing at the board's join URL.
func (s *Server) handleShareCode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if _, err := database.GameByCode(s.DB, code); err != nil {
		s.writeError(w, err)
		return
	}

	url := fmt.Sprintf("%s/game/%s", s.BaseURL, code)
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		s.Log.WithError(err).Error("could not encode qr code")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		s.Log.WithError(err).Error("could not write qr code")
	}
}

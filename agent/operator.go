// Copyright (c) 2026 The Towerbot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorServer exposes the read-only operator surface: a websocket event
// stream at /events and the session counters at /status.
type OperatorServer struct {
	hub     *Hub
	session *Session
	srv     *http.Server
	ln      net.Listener
	cancel  context.CancelFunc
}

// StartOperator starts the operator HTTP server on addr and the hub loop
// behind it. A non-empty secret gates both endpoints behind HS256 bearer
// tokens; an empty secret leaves them open for local use.
func StartOperator(addr, secret string, hub *Hub, session *Session) (*OperatorServer, error) {
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/events", operatorAuth(secret, hub.ServeWS))
	mux.HandleFunc("/status", operatorAuth(secret, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(session.Stats())
	}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("operator listen: %w", err)
	}
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("Operator server: %v", err)
		}
	}()
	log.Printf("Operator server listening on %s", ln.Addr())

	return &OperatorServer{hub: hub, session: session, srv: srv, ln: ln, cancel: cancel}, nil
}

// Addr returns the bound address, useful when addr was :0.
func (o *OperatorServer) Addr() string {
	return o.ln.Addr().String()
}

func (o *OperatorServer) Shutdown(ctx context.Context) error {
	o.cancel()
	return o.srv.Shutdown(ctx)
}

// operatorAuth wraps a handler with bearer-token validation. The token is
// taken from the Authorization header or, for websocket clients that cannot
// set headers, the access_token query parameter.
func operatorAuth(secret string, next http.HandlerFunc) http.HandlerFunc {
	if secret == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			raw = r.URL.Query().Get("access_token")
		}
		if raw == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"tablehost/admission"
	"tablehost/internal/registry"
	"tablehost/internal/session"
	"tablehost/internal/store"
)

const defaultRoomIdleTTL = 10 * time.Minute

func main() {
	storeService, storeMode, err := store.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] failed to init snapshot store: %v", err)
	}
	defer storeService.Close()

	identityService, admissionMode, err := admission.NewServiceFromEnv()
	if err != nil {
		log.Fatalf("[Server] failed to init admission identity store: %v", err)
	}
	defer identityService.Close()

	reg := registry.New(storeService, roomIdleTTLFromEnv())
	defer reg.Stop()

	sessions := session.NewManager(reg)
	if err := reg.RestoreAll(context.Background(), sessions.Broadcast); err != nil {
		log.Printf("[Server] failed to restore rooms from store: %v", err)
	}

	admissionHTTP := admission.NewHandler(reg, sessions, identityService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/{room_id}/{player_id}", sessions.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	admissionHTTP.RegisterRoutes(mux)

	addr := strings.TrimSpace(os.Getenv("SERVER_ADDR"))
	if addr == "" {
		addr = ":18080"
	}
	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Admission mode: %s", admissionMode)
	log.Printf("[Server] Starting server on %s", addr)
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil {
		log.Fatalf("[Server] failed to start: %v", err)
	}
}

func roomIdleTTLFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv("ROOM_IDLE_TTL"))
	if raw == "" {
		return defaultRoomIdleTTL
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if ttl, err := time.ParseDuration(raw); err == nil {
		return ttl
	}
	log.Printf("[Server] invalid ROOM_IDLE_TTL %q, using default %s", raw, defaultRoomIdleTTL)
	return defaultRoomIdleTTL
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteOK writes {"ok": true, ...payload}.
func WriteOK(w http.ResponseWriter, status int, payload map[string]any) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["ok"] = true
	writeJSON(w, status, body)
}

// WriteMessage writes {"ok": false, "message": msg}.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "message": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

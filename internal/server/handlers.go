// Package server exposes the HTTP surface: WebSocket upgrades, health
// checks, Prometheus metrics, and the built-in test page.
package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tidechat/relay/internal/metrics"
)

// Handlers bundles the HTTP endpoints with the hub they feed.
type Handlers struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandlers builds the endpoint set for a hub, with the upgrader's origin
// check driven by the configured allow list.
func NewHandlers(hub *Hub, cfg *Config) *Handlers {
	policy := newOriginPolicy(cfg.AllowedOrigins)
	return &Handlers{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
	}
}

// Routes wires all endpoints into a ServeMux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Health)
	mux.HandleFunc("/ws", h.WebSocket)
	mux.HandleFunc("/test", h.TestPage)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// WebSocket upgrades the request and hands the connection to the hub, which
// launches the read/write pumps. The client has no username until it sends a
// connect event.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: WebSocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(newClient(conn, h.hub, r.RemoteAddr))
}

// Health responds with a plain text liveness message.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "relay server is running!")
}

// TestPage serves a small HTML client for exercising the relay by hand:
// register a name, pick a target, exchange messages, and watch the roster
// update in real time.
func (h *Handlers) TestPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPageHTML); err != nil {
		log.Printf("server: error writing test page: %v", err)
	}
}

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        #roster { margin: 10px 0; color: #333; }
        input[type="text"] { padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
    </style>
</head>
<body>
    <h1>Relay Test</h1>

    <div>
        <input type="text" id="name" placeholder="Your name">
        <button onclick="register()">Connect</button>
    </div>
    <div style="margin-top:10px">
        <input type="text" id="target" placeholder="Target user">
        <input type="text" id="content" placeholder="Message">
        <button onclick="sendMessage()">Send</button>
    </div>

    <div id="roster">No other users online.</div>
    <div id="log"></div>

    <script>
        let ws = null;
        const log = document.getElementById('log');
        const roster = document.getElementById('roster');

        function append(text) {
            const el = document.createElement('div');
            el.textContent = text;
            log.appendChild(el);
            log.scrollTop = log.scrollHeight;
        }

        function register() {
            const name = document.getElementById('name').value.trim();
            if (!name) return;
            if (ws) ws.close();
            ws = new WebSocket('ws://' + location.host + '/ws');
            ws.onopen = function() {
                ws.send(JSON.stringify({type: 'connect', name: name}));
                append('connected as ' + name);
            };
            ws.onmessage = function(ev) {
                const frame = JSON.parse(ev.data);
                if (frame.type === 'message') {
                    append(frame.message.from + ' -> ' + frame.message.target + ': ' + frame.message.content);
                } else if (frame.type === 'update_users') {
                    if (frame.chats.length === 0) {
                        roster.textContent = 'No other users online.';
                        return;
                    }
                    roster.textContent = frame.chats.map(function(c) {
                        return c.username + (c.message ? ' (' + c.message.content + ')' : '');
                    }).join(', ');
                }
            };
            ws.onclose = function() { append('disconnected'); };
        }

        function sendMessage() {
            if (!ws || ws.readyState !== WebSocket.OPEN) return;
            const target = document.getElementById('target').value.trim();
            const content = document.getElementById('content').value;
            if (!target) return;
            ws.send(JSON.stringify({
                type: 'message',
                message: JSON.stringify({target: target, content: content})
            }));
            document.getElementById('content').value = '';
        }
    </script>
</body>
</html>`

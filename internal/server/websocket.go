package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
	"github.com/MeKo-Tech/tocfinder/internal/report"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketScanRequest asks for a scan of an inline document. A binary
// message is treated as the raw PDF with the default page range.
type WebSocketScanRequest struct {
	Type     string `json:"type"` // "scan"
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"data"` // base64 in JSON
	Pages    string `json:"pages,omitempty"`
}

// WebSocketResponse is every message the server sends.
type WebSocketResponse struct {
	Type      string               `json:"type"` // "accepted", "page", "summary" or "error"
	RequestID string               `json:"request_id,omitempty"`
	Total     int                  `json:"total,omitempty"`
	Progress  float64              `json:"progress,omitempty"`
	Record    *pipeline.PageRecord `json:"record,omitempty"`
	Result    *pipeline.Result     `json:"result,omitempty"`
	Message   string               `json:"message,omitempty"`
	Error     string               `json:"error,omitempty"`
	ErrorType string               `json:"error_type,omitempty"`
}

// WebSocketConnWriter is the part of *websocket.Conn responses are written to.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// tocWebSocketHandler streams page verdicts while a document is scanned.
func (s *Server) tocWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn, getClientIP(r))
}

// wsMessage is one frame handed from the reader to the scan loop.
type wsMessage struct {
	messageType int
	data        []byte
}

// handleWebSocketConnection serves scan requests until the client leaves.
// Reading continues while a scan runs, so a disconnect cancels the scan.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn, client string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// base64 inflates uploads by a third
	conn.SetReadLimit(s.maxUploadMB*1024*1024*4/3 + 4096)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	messages := make(chan wsMessage)
	go func() {
		defer cancel()
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Warn("WebSocket error", "error", err)
				}
				return
			}
			websocketMessagesTotal.WithLabelValues("received").Inc()

			// No pongs are read while waiting for a running scan.
			_ = conn.SetReadDeadline(time.Time{})
			select {
			case messages <- wsMessage{messageType: messageType, data: data}:
			case <-ctx.Done():
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-messages:
			s.handleWebSocketMessage(ctx, conn, client, msg.messageType, msg.data)
		}
	}
}

// handleWebSocketMessage decodes one request and runs it. Every scan counts
// against the client's rate limits and quotas.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, client string, messageType int, data []byte) {
	var req WebSocketScanRequest
	switch messageType {
	case websocket.BinaryMessage:
		req = WebSocketScanRequest{Type: "scan", Filename: "upload.pdf", Data: data}
	case websocket.TextMessage:
		if err := json.Unmarshal(data, &req); err != nil {
			s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
			return
		}
	default:
		return
	}

	if req.Type != "scan" {
		s.sendWebSocketError(conn, "", "invalid_request", "Unsupported request type: "+req.Type)
		return
	}
	if s.rateLimiter != nil {
		if err := s.rateLimiter.Allow(client, int64(len(req.Data))); err != nil {
			s.sendWebSocketError(conn, "", rateLimitErrorType(err), err.Error())
			return
		}
	}
	s.processWebSocketScan(ctx, conn, req, uuid.NewString())
}

// rateLimitErrorType names a limiter error for WebSocket clients.
func rateLimitErrorType(err error) string {
	var rlErr *RateLimitError
	var qErr *QuotaExceededError
	switch {
	case errors.As(err, &rlErr):
		rateLimitHits.WithLabelValues(rlErr.Window).Inc()
		return "rate_limited"
	case errors.As(err, &qErr):
		rateLimitHits.WithLabelValues(qErr.Quota).Inc()
		return "quota_exceeded"
	default:
		return "internal_error"
	}
}

// processWebSocketScan runs the pipeline and streams each page record as
// soon as it exists, followed by the summary.
func (s *Server) processWebSocketScan(ctx context.Context, conn WebSocketConnWriter, req WebSocketScanRequest, requestID string) {
	if len(req.Data) == 0 {
		s.sendWebSocketError(conn, requestID, "invalid_request", "No PDF data provided")
		return
	}
	pages, err := s.requestRange(req.Pages)
	if err != nil {
		s.sendWebSocketError(conn, requestID, "invalid_request", err.Error())
		return
	}
	uploadSizeBytes.Observe(float64(len(req.Data)))

	path, cleanup, err := saveUpload(bytes.NewReader(req.Data))
	if err != nil {
		s.sendWebSocketError(conn, requestID, "internal_error", "Failed to store upload")
		return
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream := &wsStream{server: s, conn: conn, requestID: requestID}
	start := time.Now()
	res, err := s.scanner.Run(ctx, path, pipeline.WithRange(pages), pipeline.WithRunProgress(stream))
	observeScan("websocket", res, err, time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("scan failed", "request_id", requestID, "error", err)
		s.sendWebSocketError(conn, requestID, "processing_error", "Scan failed: "+err.Error())
		return
	}

	if req.Filename != "" {
		res.Filename = req.Filename
	}
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "summary",
		RequestID: requestID,
		Progress:  1.0,
		Result:    res,
		Message:   report.SummaryLine(res),
	})
}

// wsStream forwards pipeline progress to a WebSocket client.
type wsStream struct {
	pipeline.NoOpProgressCallback
	server    *Server
	conn      WebSocketConnWriter
	requestID string
	total     int
	done      int
}

func (w *wsStream) OnStart(total int) {
	w.total = total
	w.server.sendWebSocketResponse(w.conn, WebSocketResponse{Type: "accepted", RequestID: w.requestID, Total: total})
}

func (w *wsStream) OnRecord(rec pipeline.PageRecord) {
	observePage(rec)
	w.done++
	progress := 0.0
	if w.total > 0 {
		progress = float64(w.done) / float64(w.total)
	}
	w.server.sendWebSocketResponse(w.conn, WebSocketResponse{
		Type:      "page",
		RequestID: w.requestID,
		Total:     w.total,
		Progress:  progress,
		Record:    &rec,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Warn("failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "error",
		RequestID: requestID,
		Error:     message,
		ErrorType: errorType,
	})
}

package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WSHandler runs the same methods as the AJAX endpoint over one long-lived socket.
type WSHandler struct {
	dispatcher  *Dispatcher
	callTimeout time.Duration
	upgrader    websocket.Upgrader
}

func NewWSHandler(dispatcher *Dispatcher, callTimeout time.Duration) *WSHandler {
	return &WSHandler{
		dispatcher:  dispatcher,
		callTimeout: callTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Args   json.RawMessage `json:"args"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and answers call frames until the client goes away.
// Calls are handled concurrently; replies carry the call id and may arrive out of order.
func (h *WSHandler) ServeWS(c *gin.Context) {
	viewer := viewerFrom(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				cancel()
				// keep draining so in-flight calls never block
				for range send {
				}
				return
			}
		}
	}()

	var calls sync.WaitGroup
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type != "call" {
			send <- outboundMessage[any]{Type: "error", ID: inbound.ID, Payload: errorPayload{
				Code:    codeInvalidInput,
				Message: "unsupported message type",
			}}
			continue
		}

		calls.Add(1)
		go func(in inboundMessage) {
			defer calls.Done()
			callCtx, callCancel := h.callContext(ctx)
			defer callCancel()
			result, err := h.dispatcher.Call(callCtx, viewer, in.Method, in.Args)
			if err != nil {
				ex := newException(err)
				send <- outboundMessage[any]{Type: "error", ID: in.ID, Payload: errorPayload{Code: ex.ErrorCode, Message: ex.Message}}
				return
			}
			send <- outboundMessage[any]{Type: "result", ID: in.ID, Payload: result}
		}(inbound)
	}

	cancel()
	calls.Wait()
	close(send)
	<-writerDone
}

func (h *WSHandler) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.callTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.callTimeout)
}

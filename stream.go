package main

import (
	"net/http"

	"github.com/CodedInternet/gocrawler/comms"
	"github.com/CodedInternet/gocrawler/internal/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamHandler upgrades to a websocket and hands the connection to the conductor.
func StreamHandler(conductor *comms.Conductor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("upgrade failed", "err", err)
			return
		}
		conductor.Serve(conn)
	}
}

package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"syncarena/protocol"
)

const (
	readLimit     = 1 << 16 // 64KB，输入消息很小
	readTimeout   = 60 * time.Second
	pingInterval  = 25 * time.Second // 必须小于 readTimeout，对端的 pong 才来得及续期
	writeTimeout  = 5 * time.Second
	sendQueueSize = 64
)

// ClientConn 负责向客户端写数据的轻量包装
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	// 测试里会调小，生产走上面的默认值
	readTimeout  time.Duration
	pingInterval time.Duration
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:           ws,
		send:         make(chan []byte, sendQueueSize),
		readTimeout:  readTimeout,
		pingInterval: pingInterval,
	}
}

// Enqueue 把待发送消息压入队列（非阻塞，满则丢弃旧不如丢弃新——下一个快照会补上）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// 发射后不管：快照流自愈，丢一条无所谓
	}
}

// Close 关闭发送队列以结束写协程；只允许房间循环调用一次
func (c *ClientConn) Close() {
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
	_ = c.ws.Close()
}

// writePump 独立协程，从 send 队列写出到 WS；定期 ping 让对端 pong 续读超时
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	defer c.ws.Close()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息并按 type 分发；坏消息丢弃但连接保持
func (c *ClientConn) readPump(room *Room, limiter *rate.Limiter) {
	defer c.ws.Close()
	// 读泵退出（含对端断开）时，让房间循环移除该玩家
	defer room.RequestLeave(c)

	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		// 任何入站流量都算存活，不只依赖 pong
		_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
		kind, err := protocol.Kind(payload)
		if err != nil {
			room.Metrics().IncMalformed()
			Log.Debugf("room=%s malformed message dropped: %v", room.ID, err)
			continue
		}
		if kind != protocol.MsgInput {
			// 未知 type：为向前兼容静默忽略
			room.Metrics().IncUnknown()
			continue
		}
		if !limiter.Allow() {
			room.Metrics().IncRateLimited()
			continue
		}
		in, err := protocol.Decode[protocol.Input](payload)
		if err != nil {
			room.Metrics().IncMalformed()
			Log.Debugf("room=%s bad input payload dropped: %v", room.ID, err)
			continue
		}
		room.OnInput(c, in)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源
		return true
	},
}

// HandleWS WebSocket 接入：?room=room-1，玩家 ID 由服务端分配并经 init 下发
func HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = "room-1"
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	rm := GetRoomManager()
	room := rm.GetOrCreateRoom(roomID)

	client := NewClientConn(ws)
	go client.writePump() // 先起写泵，init 消息延迟到点后要能写出

	id := room.Join(client)
	Log.Debugf("room=%s conn accepted as player=%d", roomID, id)

	limiter := rate.NewLimiter(rate.Limit(rm.cfg.InputRatePerSec), rm.cfg.InputBurst)
	go client.readPump(room, limiter)
}

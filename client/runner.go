package client

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"syncarena/config"
	"syncarena/lag"
	"syncarena/protocol"
)

const (
	dialTimeout  = 5 * time.Second
	pingInterval = 25 * time.Second
	writeTimeout = 5 * time.Second
	inputPeriod  = 500 * time.Millisecond // 机器人变向周期
)

// Runner 无头客户端：连上服务器、随机游走、每帧做延迟插值取样
// 和服务端一样是单协程事件循环，读协程只负责把消息塞进通道
type Runner struct {
	url  string
	cfg  *config.Config
	log  *zap.SugaredLogger
	view *WorldView

	// 出站也走延迟队列；extraLag 为 0 时等价于立即发送
	// 非对称链路实验时可以调大它
	outbox   *lag.Queue[[]byte]
	extraLag time.Duration

	conn *websocket.Conn
	rng  *rand.Rand
	quit chan struct{}

	lastInput protocol.Input

	mu        sync.Mutex
	lastFrame []RenderedPlayer
}

func NewRunner(url string, cfg *config.Config, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{
		url:    url,
		cfg:    cfg,
		log:    log,
		view:   NewWorldView(cfg.BufferCap, cfg.RenderDelayMs),
		outbox: lag.NewQueue[[]byte](),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		quit:   make(chan struct{}),
	}
}

// SetExtraLag 客户端侧附加延迟（模拟非对称链路），须在 Run 之前调用
func (r *Runner) SetExtraLag(d time.Duration) {
	r.extraLag = d
}

// LastFrame 最近一次插值取样的渲染帧，可跨协程读
func (r *Runner) LastFrame() []RenderedPlayer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RenderedPlayer(nil), r.lastFrame...)
}

func (r *Runner) Stop() {
	close(r.quit)
}

// Run 阻塞运行直到连接断开或 Stop
func (r *Runner) Run() error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(r.url, nil)
	if err != nil {
		return err
	}
	r.conn = conn
	defer conn.Close()

	msgs := make(chan []byte, 64)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case msgs <- payload:
			default:
				// 循环消化不过来就丢：下一个快照会补上
			}
		}
	}()

	frame := time.NewTicker(time.Second / time.Duration(r.cfg.FrameRate))
	defer frame.Stop()
	steer := time.NewTicker(inputPeriod)
	defer steer.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	sendTimer := time.NewTimer(time.Hour)
	sendTimer.Stop()
	defer sendTimer.Stop()

	for {
		select {
		case <-r.quit:
			return nil
		case err := <-readErr:
			r.log.Infof("bot disconnected: %v", err)
			return err
		case payload := <-msgs:
			r.handleMessage(payload)
		case <-frame.C:
			f := r.view.Frame(time.Now().UnixMilli())
			r.mu.Lock()
			r.lastFrame = f
			r.mu.Unlock()
		case <-steer.C:
			r.steer(sendTimer)
		case <-sendTimer.C:
			r.flushOutbox(sendTimer)
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// handleMessage 按 type 分发；坏消息与未知 type 一律忽略
func (r *Runner) handleMessage(payload []byte) {
	kind, err := protocol.Kind(payload)
	if err != nil {
		r.log.Debugf("bot dropped malformed message: %v", err)
		return
	}
	now := time.Now().UnixMilli()
	switch kind {
	case protocol.MsgInit:
		msg, err := protocol.Decode[protocol.Init](payload)
		if err != nil {
			return
		}
		r.view.ApplyInit(msg)
		r.log.Infof("bot joined as player=%d world=%.0fx%.0f lag=%dms",
			msg.YourID, msg.World.Width, msg.World.Height, msg.LagMs)
	case protocol.MsgPlayerCount:
		msg, err := protocol.Decode[protocol.PlayerCount](payload)
		if err != nil {
			return
		}
		r.view.ApplyPlayerCount(msg)
	case protocol.MsgState:
		st, err := protocol.Decode[protocol.State](payload)
		if err != nil {
			return
		}
		r.view.ApplyState(st, now)
	default:
		// 向前兼容：未知消息静默忽略
	}
}

// steer 随机挑一个移动意图，变化时发给服务端
func (r *Runner) steer(sendTimer *time.Timer) {
	in := protocol.Input{
		Type:  protocol.MsgInput,
		Up:    r.rng.Intn(3) == 0,
		Down:  r.rng.Intn(3) == 0,
		Left:  r.rng.Intn(3) == 0,
		Right: r.rng.Intn(3) == 0,
	}
	if in == r.lastInput {
		return
	}
	r.lastInput = in
	b, err := protocol.Encode(in)
	if err != nil {
		return
	}
	r.outbox.Push(time.Now().Add(r.extraLag), b)
	r.armSendTimer(sendTimer)
}

func (r *Runner) flushOutbox(sendTimer *time.Timer) {
	for _, b := range r.outbox.PopDue(time.Now()) {
		_ = r.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := r.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			r.log.Debugf("bot send failed: %v", err)
			return
		}
	}
	r.armSendTimer(sendTimer)
}

func (r *Runner) armSendTimer(sendTimer *time.Timer) {
	if !sendTimer.Stop() {
		select {
		case <-sendTimer.C:
		default:
		}
	}
	if next, ok := r.outbox.NextDue(); ok {
		sendTimer.Reset(time.Until(next))
	}
}

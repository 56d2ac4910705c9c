package server

import (
	"testing"
	"time"

	"github.com/paulmach/orb"

	"syncarena/config"
	"syncarena/protocol"
)

type fakeConn struct {
	ch     chan []byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{ch: make(chan []byte, 256)}
}

func (f *fakeConn) Enqueue(b []byte) {
	cp := append([]byte(nil), b...)
	select {
	case f.ch <- cp:
	default:
	}
}

func (f *fakeConn) Close() {
	f.closed = true
}

// drainStates 取出已投递消息里的全部 state 快照
func drainStates(t *testing.T, fc *fakeConn) []protocol.State {
	t.Helper()
	var out []protocol.State
	for {
		select {
		case b := <-fc.ch:
			kind, err := protocol.Kind(b)
			if err != nil {
				t.Fatalf("bad message delivered: %v", err)
			}
			if kind != protocol.MsgState {
				continue
			}
			st, err := protocol.Decode[protocol.State](b)
			if err != nil {
				t.Fatalf("decode state: %v", err)
			}
			out = append(out, st)
		default:
			return out
		}
	}
}

func roomConfig(lagMs int) *config.Config {
	cfg := testConfig()
	cfg.TickRate = 20
	cfg.SpawnIntervalMs = 1000
	cfg.MaxCoins = 10
	cfg.MaxTickDeltaMs = 250
	cfg.LagMs = lagMs
	return cfg
}

// join 直接走房间处理函数（测试不起事件循环，时序完全可控）
func join(r *Room, fc *fakeConn) int {
	reply := make(chan int, 1)
	r.handleJoin(joinReq{conn: fc, reply: reply})
	return <-reply
}

func TestJoinDeliversInitAfterLag(t *testing.T) {
	r := NewRoom("t", roomConfig(100))
	fc := newFakeConn()
	id := join(r, fc)
	if id == 0 {
		t.Fatalf("expected assigned id")
	}

	r.flushDue(time.Now())
	select {
	case b := <-fc.ch:
		t.Fatalf("message delivered before lag elapsed: %s", b)
	default:
	}

	r.flushDue(time.Now().Add(150 * time.Millisecond))
	var initMsg protocol.Init
	found := false
	for {
		select {
		case b := <-fc.ch:
			if kind, _ := protocol.Kind(b); kind == protocol.MsgInit {
				initMsg, _ = protocol.Decode[protocol.Init](b)
				found = true
			}
			continue
		default:
		}
		break
	}
	if !found {
		t.Fatalf("init not delivered after lag")
	}
	if initMsg.YourID != id || initMsg.LagMs != 100 {
		t.Fatalf("init = %+v, want yourId=%d lagMs=100", initMsg, id)
	}
	if initMsg.World.Width != 800 || initMsg.World.Height != 600 {
		t.Fatalf("init world = %+v", initMsg.World)
	}
}

func TestInputTakesEffectAfterDelay(t *testing.T) {
	r := NewRoom("t", roomConfig(50))
	fc := newFakeConn()
	id := join(r, fc)
	p, _ := r.world.PlayerByID(id)

	in := protocol.Input{Type: protocol.MsgInput, Right: true}
	r.schedule(delivery{conn: fc, input: &in})

	r.flushDue(time.Now())
	if p.Input.Right {
		t.Fatalf("input applied before lag elapsed")
	}
	r.flushDue(time.Now().Add(60 * time.Millisecond))
	if !p.Input.Right {
		t.Fatalf("input not applied after lag")
	}
}

func TestTickBroadcastsContestedPickupExactlyOnce(t *testing.T) {
	r := NewRoom("t", roomConfig(0))
	fc1 := newFakeConn()
	fc2 := newFakeConn()
	id1 := join(r, fc1)
	id2 := join(r, fc2)

	p1, _ := r.world.PlayerByID(id1)
	p2, _ := r.world.PlayerByID(id2)
	p1.Pos = orb.Point{100, 100}
	p2.Pos = orb.Point{110, 100}
	c := r.world.SpawnCoin()
	c.Pos = orb.Point{105, 100} // 两人同 Tick 都能碰到

	now := time.Now()
	r.lastTick = now.Add(-50 * time.Millisecond)
	r.tick(now)
	r.flushDue(now)

	for _, fc := range []*fakeConn{fc1, fc2} {
		states := drainStates(t, fc)
		if len(states) == 0 {
			t.Fatalf("no state broadcast delivered")
		}
		st := states[len(states)-1]
		var s1, s2 = -1, -1
		for _, p := range st.Players {
			if p.ID == id1 {
				s1 = p.Score
			}
			if p.ID == id2 {
				s2 = p.Score
			}
		}
		if s1 != 1 || s2 != 0 {
			t.Fatalf("scores = (%d,%d), want first-joined wins (1,0)", s1, s2)
		}
		if len(st.Coins) != 0 {
			t.Fatalf("consumed coin still in snapshot: %+v", st.Coins)
		}
	}
}

func TestDisconnectDisappearsFromNextBroadcast(t *testing.T) {
	r := NewRoom("t", roomConfig(0))
	fc1 := newFakeConn()
	fc2 := newFakeConn()
	join(r, fc1)
	id2 := join(r, fc2)

	now := time.Now()
	r.lastTick = now
	r.tick(now)
	r.flushDue(now)
	if states := drainStates(t, fc2); len(states) == 0 || len(states[0].Players) != 2 {
		t.Fatalf("expected both players in first broadcast")
	}

	r.handleLeave(fc1)
	if !fc1.closed {
		t.Fatalf("conn not closed on leave")
	}
	// 幂等：重复移除不报错不重复广播
	r.handleLeave(fc1)

	now = now.Add(50 * time.Millisecond)
	r.tick(now)
	r.flushDue(now)
	states := drainStates(t, fc2)
	if len(states) == 0 {
		t.Fatalf("no broadcast after leave")
	}
	st := states[len(states)-1]
	if len(st.Players) != 1 || st.Players[0].ID != id2 {
		t.Fatalf("departed player still in snapshot: %+v", st.Players)
	}
}

func TestPendingDeliveryToDepartedConnDropped(t *testing.T) {
	r := NewRoom("t", roomConfig(100))
	fc := newFakeConn()
	join(r, fc)

	now := time.Now()
	r.lastTick = now
	r.tick(now) // 广播进入延迟队列
	r.handleLeave(fc)

	r.flushDue(now.Add(200 * time.Millisecond))
	if states := drainStates(t, fc); len(states) != 0 {
		t.Fatalf("state delivered to departed conn: %d messages", len(states))
	}
	if got := r.metrics.Snapshot()["sends_skipped_closed"].(int64); got == 0 {
		t.Fatalf("expected skipped sends to be counted")
	}
}

func TestSpawnCoinRespectsCap(t *testing.T) {
	cfg := roomConfig(0)
	cfg.MaxCoins = 3
	r := NewRoom("t", cfg)
	for i := 0; i < 10; i++ {
		r.spawnCoin()
	}
	if got := r.world.CoinCount(); got != 3 {
		t.Fatalf("coin count = %d, want cap 3", got)
	}
}

func TestApplyPatchUpdatesConfigAndWorld(t *testing.T) {
	r := NewRoom("t", roomConfig(250))
	spawn := time.NewTicker(time.Hour)
	defer spawn.Stop()

	lag := 50
	speed := 300.0
	r.applyPatch(ConfigPatch{LagMs: &lag, Speed: &speed}, spawn)

	cfg := r.Config()
	if cfg.LagMs != 50 || cfg.Speed != 300 {
		t.Fatalf("config after patch = %+v", cfg)
	}
	if r.world.Speed != 300 {
		t.Fatalf("world speed = %v, want 300", r.world.Speed)
	}
	if r.lagDuration() != 50*time.Millisecond {
		t.Fatalf("lagDuration = %v", r.lagDuration())
	}
}

// 异步冒烟：真实事件循环下快照持续到达且服务端时间单调
func TestRunLoopBroadcastsMonotonicServerTime(t *testing.T) {
	cfg := roomConfig(10)
	cfg.TickRate = 50
	cfg.SpawnIntervalMs = 30
	r := NewRoom("t", cfg)
	r.StartTicker()
	defer r.Stop()

	fc := newFakeConn()
	if id := r.Join(fc); id == 0 {
		t.Fatalf("join failed")
	}

	var states []protocol.State
	deadline := time.After(2 * time.Second)
	for len(states) < 5 {
		select {
		case b := <-fc.ch:
			if kind, _ := protocol.Kind(b); kind == protocol.MsgState {
				st, err := protocol.Decode[protocol.State](b)
				if err != nil {
					t.Fatalf("decode state: %v", err)
				}
				states = append(states, st)
			}
		case <-deadline:
			t.Fatalf("timed out, only %d states", len(states))
		}
	}
	for i := 1; i < len(states); i++ {
		if states[i].ServerTime < states[i-1].ServerTime {
			t.Fatalf("serverTime went backwards: %d then %d",
				states[i-1].ServerTime, states[i].ServerTime)
		}
	}
	// 生成周期远小于观察窗口，至少应出现一枚金币
	last := states[len(states)-1]
	if len(last.Coins) == 0 {
		t.Fatalf("expected coins to spawn during run")
	}
}

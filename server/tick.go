package server

import "time"

// StartTicker 启动房间事件循环（单协程推进世界）
func (r *Room) StartTicker() {
	if r.started {
		return
	}
	r.started = true
	go r.run()
}

// run 房间的唯一写协程：Tick、金币生成、延迟投递、进出与输入
// 全部在这一个 select 里串行，世界状态无需加锁
func (r *Room) run() {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()
	spawn := time.NewTicker(time.Duration(r.Config().SpawnIntervalMs) * time.Millisecond)
	defer spawn.Stop()

	r.lastTick = time.Now()
	for {
		select {
		case <-r.quit:
			return
		case j := <-r.joinChan:
			r.handleJoin(j)
		case conn := <-r.leaveChan:
			r.handleLeave(conn)
		case ev := <-r.inputChan:
			r.metrics.IncAccepted()
			in := ev.input
			r.schedule(delivery{conn: ev.conn, input: &in})
		case patch := <-r.cfgChan:
			r.applyPatch(patch, spawn)
		case <-r.delayTimer.C:
			r.flushDue(time.Now())
			r.armDelayTimer()
		case now := <-ticker.C:
			r.flushDue(now) // 先投递到点的消息，再推进世界
			r.tick(now)
			r.armDelayTimer()
		case <-spawn.C:
			r.spawnCoin()
		}
	}
}

// tick 一次权威模拟：Δt 封顶 → 积分与碰撞 → 广播快照
func (r *Room) tick(now time.Time) {
	start := time.Now()
	dt := now.Sub(r.lastTick)
	r.lastTick = now
	if dt < 0 {
		dt = 0
	}
	if dt > r.maxTickDelta {
		// 调度停顿不应换来一次瞬移
		dt = r.maxTickDelta
	}
	if collected := r.world.Step(dt.Seconds()); collected > 0 {
		r.metrics.AddCoinsCollected(collected)
	}
	r.broadcastState(now)
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

// spawnCoin 周期生成一枚金币；场上数量到上限时跳过本轮
func (r *Room) spawnCoin() {
	if r.world.CoinCount() >= r.Config().MaxCoins {
		return
	}
	r.world.SpawnCoin()
	r.metrics.AddCoinsSpawned(1)
}

// armDelayTimer 把唤醒定时器对准延迟队列的下一条消息
// 在单协程内 Stop/排水/Reset，最坏情况只是一次空唤醒
func (r *Room) armDelayTimer() {
	if !r.delayTimer.Stop() {
		select {
		case <-r.delayTimer.C:
		default:
		}
	}
	if next, ok := r.delays.NextDue(); ok {
		r.delayTimer.Reset(time.Until(next))
	}
}

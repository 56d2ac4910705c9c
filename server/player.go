package server

import "github.com/paulmach/orb"

// InputState 四个方向键的按下状态，服务端权威解释客户端意图
type InputState struct {
	Up    bool
	Down  bool
	Left  bool
	Right bool
}

// Player 房间内的玩家实体（服务端权威状态）
// 速度不落地：每个 Tick 由 Input 重新推导
type Player struct {
	ID    int
	Pos   orb.Point
	Score int
	Input InputState

	Conn Conn // 网络连接的发送端，断开时为 nil（仅测试场景）
}

// Coin 场上的金币，位置生成后不再变化，被拾取即销毁
type Coin struct {
	ID  int
	Pos orb.Point
}

package server

import "syncarena/protocol"

// inputEvent 读协程解析出的输入意图，进入房间循环后再经延迟队列生效
type inputEvent struct {
	conn  Conn
	input protocol.Input
}

// joinReq 连接接入请求，Reply 返回分配到的玩家 ID
type joinReq struct {
	conn  Conn
	reply chan int
}

// delivery 延迟队列里的一条待投递消息
// input 非 nil 表示入站（延迟后写入玩家意图），否则为出站（延迟后写给连接）
type delivery struct {
	conn  Conn
	data  []byte
	input *protocol.Input
}

// ConfigPatch 管理接口的热更新载荷，nil 字段表示不改
type ConfigPatch struct {
	LagMs           *int     `json:"lagMs,omitempty"`
	Speed           *float64 `json:"speed,omitempty"`
	SpawnIntervalMs *int     `json:"spawnIntervalMs,omitempty"`
	MaxCoins        *int     `json:"maxCoins,omitempty"`
}

package protocol

// 线上协议：JSON over WebSocket，所有消息以 type 字段区分类型
const (
	MsgInit        = "init"
	MsgPlayerCount = "player_count"
	MsgState       = "state"
	MsgInput       = "input"
)

// WorldSize 世界矩形尺寸（像素）
type WorldSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Init 连接建立后服务端下发一次：分配的玩家 ID、世界尺寸与人工延迟配置
type Init struct {
	Type   string    `json:"type"`
	YourID int       `json:"yourId"`
	World  WorldSize `json:"world"`
	LagMs  int       `json:"lagMs"`
}

// PlayerCount 每次有人进出房间时广播在线人数（仅供展示，不影响模拟）
type PlayerCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// PlayerState 快照里的单个玩家
type PlayerState struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score int     `json:"score"`
}

// CoinState 快照里的单个金币
type CoinState struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// State 每个 Tick 广播一次的全量世界快照
// ServerTime 为服务端逻辑时钟（毫秒 epoch），客户端据此估算时钟偏移
type State struct {
	Type       string        `json:"type"`
	ServerTime int64         `json:"serverTime"`
	Players    []PlayerState `json:"players"`
	Coins      []CoinState   `json:"coins"`
}

// Input 客户端上行：四个方向键的当前按下状态（意图，不是位移）
type Input struct {
	Type  string `json:"type"`
	Up    bool   `json:"up"`
	Down  bool   `json:"down"`
	Left  bool   `json:"left"`
	Right bool   `json:"right"`
}

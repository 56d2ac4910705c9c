// Package config 从环境变量（可选 .env 文件）读取运行参数，全部带默认值
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config 服务端与内置客户端共用的运行配置
type Config struct {
	Addr    string // HTTP/WS 监听地址
	LogFile string // 滚动日志文件路径

	// 世界参数
	WorldWidth   float64
	WorldHeight  float64
	PlayerRadius float64
	CoinRadius   float64
	PlayerSpeed  float64 // 像素/秒

	// 节奏参数
	TickRate        int // 模拟频率（Hz）
	SpawnIntervalMs int // 金币生成周期
	MaxCoins        int // 场上金币上限，满了暂停生成
	MaxTickDeltaMs  int // 单次 Tick 的 Δt 上限，防止调度停顿造成瞬移

	// 网络参数
	LagMs           int     // 单向人工延迟
	InputRatePerSec float64 // 单连接输入限速
	InputBurst      int

	// 客户端参数
	RenderDelayMs int // 渲染延迟（回看多久之前的服务端时间）
	BufferCap     int // 每个远端玩家保留的快照样本数
	FrameRate     int // 无头客户端的取样帧率
	Bots          int // 启动时内置的机器人客户端数量
}

// Load 读取 .env（缺失不报错）与环境变量，返回带默认值的配置
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:    envStr("ARENA_ADDR", ":8080"),
		LogFile: envStr("ARENA_LOG_FILE", "app.log"),

		WorldWidth:   envFloat("ARENA_WORLD_WIDTH", 800),
		WorldHeight:  envFloat("ARENA_WORLD_HEIGHT", 600),
		PlayerRadius: envFloat("ARENA_PLAYER_RADIUS", 10),
		CoinRadius:   envFloat("ARENA_COIN_RADIUS", 7),
		PlayerSpeed:  envFloat("ARENA_PLAYER_SPEED", 200),

		TickRate:        envInt("ARENA_TICK_RATE", 20),
		SpawnIntervalMs: envInt("ARENA_SPAWN_INTERVAL_MS", 1000),
		MaxCoins:        envInt("ARENA_MAX_COINS", 50),
		MaxTickDeltaMs:  envInt("ARENA_MAX_TICK_DELTA_MS", 250),

		LagMs:           envInt("ARENA_LAG_MS", 250),
		InputRatePerSec: envFloat("ARENA_INPUT_RATE", 120),
		InputBurst:      envInt("ARENA_INPUT_BURST", 30),

		RenderDelayMs: envInt("ARENA_RENDER_DELAY_MS", 100),
		BufferCap:     envInt("ARENA_BUFFER_CAP", 50),
		FrameRate:     envInt("ARENA_FRAME_RATE", 60),
		Bots:          envInt("ARENA_BOTS", 0),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

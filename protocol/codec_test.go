package protocol

import "testing"

func TestKindSniffsTypeTag(t *testing.T) {
	raw := []byte(`{"type":"input","up":true,"down":false,"left":false,"right":true}`)
	kind, err := Kind(raw)
	if err != nil {
		t.Fatalf("Kind: %v", err)
	}
	if kind != MsgInput {
		t.Fatalf("kind = %q, want %q", kind, MsgInput)
	}

	in, err := Decode[Input](raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !in.Up || in.Down || in.Left || !in.Right {
		t.Fatalf("decoded input flags wrong: %+v", in)
	}
}

func TestKindRejectsMalformed(t *testing.T) {
	if _, err := Kind([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected error for malformed json")
	}
	if _, err := Kind(nil); err == nil {
		t.Fatalf("expected error for empty message")
	}
	if _, err := Kind([]byte(`{"up":true}`)); err == nil {
		t.Fatalf("expected error for missing type tag")
	}
}

func TestKindAcceptsUnknownType(t *testing.T) {
	// 未知 type 不是错误，调用方负责忽略
	kind, err := Kind([]byte(`{"type":"chat","text":"hi"}`))
	if err != nil {
		t.Fatalf("Kind: %v", err)
	}
	if kind != "chat" {
		t.Fatalf("kind = %q, want %q", kind, "chat")
	}
}

func TestEncodeRejectsNil(t *testing.T) {
	if _, err := Encode(nil); err == nil {
		t.Fatalf("expected error encoding nil")
	}
}

func TestStateRoundTripKeepsOrder(t *testing.T) {
	st := State{
		Type:       MsgState,
		ServerTime: 1234,
		Players: []PlayerState{
			{ID: 1, X: 10, Y: 20, Score: 3},
			{ID: 2, X: 30, Y: 40, Score: 0},
		},
		Coins: []CoinState{{ID: 7, X: 5, Y: 6}},
	}
	b, err := Encode(st)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode[State](b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Players) != 2 || got.Players[0].ID != 1 || got.Players[1].ID != 2 {
		t.Fatalf("player order not preserved: %+v", got.Players)
	}
	if got.ServerTime != 1234 || len(got.Coins) != 1 || got.Coins[0].ID != 7 {
		t.Fatalf("state fields wrong: %+v", got)
	}
}

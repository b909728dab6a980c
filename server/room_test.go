package server

import (
	"encoding/json"
	"testing"

	"roomsync/proto"
)

// newTestConn 不带底层 WS 的连接，测试直接读取发送队列
func newTestConn() *ClientConn {
	return &ClientConn{send: make(chan []byte, 64), closed: make(chan struct{})}
}

func drain(t *testing.T, c *ClientConn) []proto.Envelope {
	t.Helper()
	var out []proto.Envelope
	for {
		select {
		case b := <-c.send:
			var env proto.Envelope
			if err := json.Unmarshal(b, &env); err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func ofType(envs []proto.Envelope, typ string) []proto.Envelope {
	var out []proto.Envelope
	for _, e := range envs {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func decode[T any](t *testing.T, env proto.Envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		t.Fatalf("decode %s: %v", env.Type, err)
	}
	return v
}

func joinInput(id string, c *ClientConn, profile *proto.Profile) Input {
	return Input{
		Kind:     InputJoin,
		PlayerID: PlayerID(id),
		Conn:     c,
		Join:     &proto.JoinRoom{RoomID: "r", UserID: id, UserName: "name-" + id, UserProfile: profile},
	}
}

func moveInput(id string, c *ClientConn, x, y float64) Input {
	return Input{
		Kind:     InputMove,
		PlayerID: PlayerID(id),
		Conn:     c,
		Move:     &proto.Move{X: x, Y: y, Direction: proto.DirRight, IsMoving: true},
	}
}

func TestRoomJoinSnapshot(t *testing.T) {
	r := NewRoom("r", nil, nil)
	a, b := newTestConn(), newTestConn()

	r.OnInput(joinInput("a", a, nil))
	r.Step()
	joined := ofType(drain(t, a), proto.TypeJoinedRoom)
	if len(joined) != 1 {
		t.Fatalf("expected joinedRoom for a, got %d", len(joined))
	}
	if snap := decode[proto.JoinedRoom](t, joined[0]); len(snap.Players) != 0 {
		t.Fatalf("first player should see an empty room, got %+v", snap.Players)
	}

	r.OnInput(joinInput("b", b, &proto.Profile{Username: "bee", About: "hi"}))
	r.Step()
	snap := decode[proto.JoinedRoom](t, ofType(drain(t, b), proto.TypeJoinedRoom)[0])
	if len(snap.Players) != 1 || snap.Players[0].ID != "a" {
		t.Fatalf("expected snapshot with a only, got %+v", snap.Players)
	}
	if snap.MyProfile == nil || snap.MyProfile.Username != "bee" {
		t.Fatalf("expected myProfile echoed, got %+v", snap.MyProfile)
	}

	joins := ofType(drain(t, a), proto.TypePlayerJoined)
	if len(joins) != 1 {
		t.Fatalf("expected a to see b join, got %d", len(joins))
	}
	pd := decode[proto.PlayerData](t, joins[0])
	if pd.ID != "b" || pd.Name != "bee" || pd.X != spawnX || pd.Direction != proto.DirDown {
		t.Fatalf("unexpected join payload: %+v", pd)
	}
}

func TestRoomStoredProfileWins(t *testing.T) {
	store := NewProfileStore()
	store.Put("a", proto.Profile{Username: "server-side", About: "stored"})
	r := NewRoom("r", store, nil)
	a := newTestConn()

	r.OnInput(joinInput("a", a, &proto.Profile{Username: "client-side"}))
	r.Step()
	snap := decode[proto.JoinedRoom](t, ofType(drain(t, a), proto.TypeJoinedRoom)[0])
	if snap.MyProfile == nil || snap.MyProfile.Username != "server-side" {
		t.Fatalf("expected stored profile, got %+v", snap.MyProfile)
	}
}

func TestRoomMoveBroadcastsOncePerTick(t *testing.T) {
	r := NewRoom("r", nil, nil)
	a, b := newTestConn(), newTestConn()
	r.OnInput(joinInput("a", a, nil))
	r.OnInput(joinInput("b", b, nil))
	r.Step()
	drain(t, a)
	drain(t, b)

	r.OnInput(moveInput("a", a, 10, 10))
	r.OnInput(moveInput("a", a, 20, 10))
	r.Step()

	moved := ofType(drain(t, b), proto.TypePlayerMoved)
	if len(moved) != 1 {
		t.Fatalf("expected one coalesced playerMoved, got %d", len(moved))
	}
	if pm := decode[proto.PlayerMoved](t, moved[0]); pm.X != 20 || !pm.IsMoving {
		t.Fatalf("expected latest state, got %+v", pm)
	}
	if len(drain(t, a)) != 0 {
		t.Fatalf("sender should not receive its own move")
	}

	r.Step()
	if len(drain(t, b)) != 0 {
		t.Fatalf("idle tick should not broadcast")
	}
}

func TestRoomEchoToSender(t *testing.T) {
	r := NewRoom("r", nil, nil)
	a := newTestConn()
	r.OnInput(joinInput("a", a, nil))
	r.Step()
	drain(t, a)

	r.echoToSender.Store(true)
	r.OnInput(moveInput("a", a, 5, 5))
	r.Step()
	if len(ofType(drain(t, a), proto.TypePlayerMoved)) != 1 {
		t.Fatalf("expected echo of own move")
	}
}

func TestRoomRateLimit(t *testing.T) {
	r := NewRoom("r", nil, nil)
	a := newTestConn()
	r.OnInput(joinInput("a", a, nil))
	r.Step()
	r.maxMovesPerTick.Store(2)

	for i := 0; i < 3; i++ {
		r.OnInput(moveInput("a", a, float64(i), 0))
	}
	r.Step()

	snap := r.metrics.Snapshot()
	if snap["moves_accepted"].(int64) != 2 || snap["rate_limited"].(int64) != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if got := r.Players["a"].X; got != 1 {
		t.Fatalf("expected x from last accepted move, got %v", got)
	}
}

func TestRoomStaleConnectionIgnored(t *testing.T) {
	r := NewRoom("r", nil, nil)
	old, cur, watcher := newTestConn(), newTestConn(), newTestConn()
	r.OnInput(joinInput("w", watcher, nil))
	r.OnInput(joinInput("a", old, nil))
	r.Step()
	r.OnInput(joinInput("a", cur, nil))
	r.Step()
	drain(t, watcher)

	select {
	case <-old.closed:
	default:
		t.Fatalf("replaced connection should be closed")
	}

	r.OnInput(moveInput("a", old, 99, 99))
	r.RequestLeave("a", old)
	r.Step()
	if len(drain(t, watcher)) != 0 {
		t.Fatalf("stale connection must not affect the room")
	}
	if p, ok := r.Players["a"]; !ok || p.Conn != cur {
		t.Fatalf("player should stay bound to the new connection")
	}

	r.RequestLeave("a", cur)
	r.Step()
	left := ofType(drain(t, watcher), proto.TypePlayerLeft)
	if len(left) != 1 || decode[proto.PlayerLeft](t, left[0]).ID != "a" {
		t.Fatalf("expected playerLeft for a, got %+v", left)
	}
	if _, ok := r.Players["a"]; ok {
		t.Fatalf("player should be removed")
	}
}

func TestRoomProfileAndInteraction(t *testing.T) {
	store := NewProfileStore()
	r := NewRoom("r", store, nil)
	a, b := newTestConn(), newTestConn()
	r.OnInput(joinInput("a", a, nil))
	r.OnInput(joinInput("b", b, nil))
	r.Step()
	drain(t, b)

	r.OnInput(Input{Kind: InputProfile, PlayerID: "a", Conn: a, Profile: &proto.Profile{Username: "alice", About: "x"}})
	r.OnInput(Input{Kind: InputInteract, PlayerID: "a", Conn: a, Interact: &proto.Interact{ObjectID: "door", Action: "open"}})
	r.Step()

	got := drain(t, b)
	upd := ofType(got, proto.TypePlayerProfileUpdated)
	if len(upd) != 1 {
		t.Fatalf("expected profile update, got %+v", got)
	}
	if pu := decode[proto.PlayerProfileUpdated](t, upd[0]); pu.ID != "a" || pu.Name != "alice" {
		t.Fatalf("unexpected profile update: %+v", pu)
	}
	inter := ofType(got, proto.TypePlayerInteracted)
	if len(inter) != 1 || decode[proto.PlayerInteracted](t, inter[0]).ObjectID != "door" {
		t.Fatalf("expected interaction broadcast, got %+v", inter)
	}
	if p := store.Resolve("a", nil); p == nil || p.Username != "alice" {
		t.Fatalf("profile should be persisted, got %+v", p)
	}
}

func TestParseInput(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		kind  InputKind
		bad   bool
	}{
		{name: "move", frame: `{"type":"move","payload":{"x":1,"y":2,"direction":"up","isMoving":true}}`, kind: InputMove},
		{name: "profile", frame: `{"type":"updateProfile","payload":{"username":"u","about":""}}`, kind: InputProfile},
		{name: "interact", frame: `{"type":"interact","payload":{"objectId":"o","action":"a"}}`, kind: InputInteract},
		{name: "move without y", frame: `{"type":"move","payload":{"x":1}}`, bad: true},
		{name: "bad direction", frame: `{"type":"move","payload":{"x":1,"y":1,"direction":"north"}}`, bad: true},
		{name: "late join", frame: `{"type":"joinRoom","payload":{"roomId":"r","userId":"u"}}`, bad: true},
		{name: "garbage", frame: `not json`, bad: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in, err := parseInput([]byte(tc.frame))
			if tc.bad {
				if err == nil {
					t.Fatalf("expected error, got %+v", in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Kind != tc.kind {
				t.Fatalf("expected kind %d, got %d", tc.kind, in.Kind)
			}
		})
	}
}

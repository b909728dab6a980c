package client

import (
	"testing"
	"time"

	"roomsync/proto"
)

type captureSender struct {
	frames []sentFrame
	err    error
}

type sentFrame struct {
	typ     string
	payload any
}

func (c *captureSender) Send(typ string, payload any) error {
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, sentFrame{typ: typ, payload: payload})
	return nil
}

func TestBroadcasterThrottles(t *testing.T) {
	b := NewBroadcaster(50 * time.Millisecond)
	out := &captureSender{}
	start := time.Unix(1000, 0)
	local := LocalActor{Position: Vec2{1, 2}, Direction: DirUp, IsMoving: true}

	if !b.Tick(start, local, out) {
		t.Fatalf("first tick should send")
	}
	if b.Tick(start.Add(49*time.Millisecond), local, out) {
		t.Fatalf("tick inside the interval should be skipped")
	}
	if !b.Tick(start.Add(50*time.Millisecond), local, out) {
		t.Fatalf("tick at the interval boundary should send")
	}
	if len(out.frames) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(out.frames))
	}
	mv, ok := out.frames[0].payload.(proto.Move)
	if !ok || out.frames[0].typ != proto.TypeMove {
		t.Fatalf("unexpected frame: %+v", out.frames[0])
	}
	if mv.X != 1 || mv.Y != 2 || mv.Direction != DirUp || !mv.IsMoving {
		t.Fatalf("unexpected move payload: %+v", mv)
	}
	sent, skipped := b.Stats()
	if sent != 2 || skipped != 1 {
		t.Fatalf("unexpected stats sent=%d skipped=%d", sent, skipped)
	}
}

func TestBroadcasterSendBound(t *testing.T) {
	interval := 50 * time.Millisecond
	for _, frame := range []time.Duration{time.Millisecond, 7 * time.Millisecond, 16 * time.Millisecond, 33 * time.Millisecond} {
		b := NewBroadcaster(interval)
		out := &captureSender{}
		start := time.Unix(0, 0)
		window := 2 * time.Second
		for at := time.Duration(0); at <= window; at += frame {
			b.Tick(start.Add(at), LocalActor{}, out)
		}
		limit := int((window+interval-1)/interval) + 1
		if len(out.frames) > limit {
			t.Fatalf("frame=%s: %d sends exceed bound %d", frame, len(out.frames), limit)
		}
		if len(out.frames) == 0 {
			t.Fatalf("frame=%s: nothing sent", frame)
		}
	}
}

func TestBroadcasterSendsUnchangedState(t *testing.T) {
	b := NewBroadcaster(10 * time.Millisecond)
	out := &captureSender{}
	now := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		b.Tick(now.Add(time.Duration(i)*10*time.Millisecond), LocalActor{}, out)
	}
	if len(out.frames) != 3 {
		t.Fatalf("expected a send per eligible tick, got %d", len(out.frames))
	}
}

func TestBroadcasterWithoutLinkSpendsTick(t *testing.T) {
	b := NewBroadcaster(50 * time.Millisecond)
	now := time.Unix(0, 0)
	if b.Tick(now, LocalActor{}, nil) {
		t.Fatalf("nothing should be sent without a link")
	}
	out := &captureSender{}
	if b.Tick(now.Add(10*time.Millisecond), LocalActor{}, out) {
		t.Fatalf("tick inside interval should still be throttled")
	}
	if !b.Tick(now.Add(60*time.Millisecond), LocalActor{}, out) {
		t.Fatalf("expected send once the interval elapsed")
	}
}

func TestSendProfileAndInteract(t *testing.T) {
	if err := sendProfile(nil, Profile{}); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	out := &captureSender{}
	if err := sendProfile(out, Profile{Username: "ada"}); err != nil {
		t.Fatalf("sendProfile: %v", err)
	}
	if err := sendInteract(out, "chest-1", "open"); err != nil {
		t.Fatalf("sendInteract: %v", err)
	}
	if out.frames[0].typ != proto.TypeUpdateProfile || out.frames[1].typ != proto.TypeInteract {
		t.Fatalf("unexpected frames: %+v", out.frames)
	}
	in := out.frames[1].payload.(proto.Interact)
	if in.ObjectID != "chest-1" || in.Action != "open" {
		t.Fatalf("unexpected interact payload: %+v", in)
	}
}

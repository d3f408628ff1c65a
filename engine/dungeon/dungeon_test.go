package dungeon

import (
	"errors"
	"testing"

	"github.com/nathoo/dpcq/types"
)

var tier = types.DungeonTier{Name: "魔兽山脉", BossPower: 1000}

func isKind(err error, kind types.FailureKind) bool {
	return errors.Is(err, &types.Failure{Kind: kind})
}

func TestLifecycle(t *testing.T) {
	m := NewManager()
	in, err := m.Create("a", []string{"b", "c", "b"}, tier, 5, 100)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(in.Members) != 3 || in.State != Created {
		t.Fatalf("instance = %+v", in)
	}
	if got := in.Waiting(); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("waiting = %v", got)
	}

	if _, err := m.Start("a"); !isKind(err, types.FailPhase) {
		t.Errorf("start before quorum: %v", err)
	}
	if _, err := m.Confirm("b"); err != nil {
		t.Fatalf("confirm b: %v", err)
	}
	if _, err := m.Confirm("b"); !isKind(err, types.FailPhase) {
		t.Errorf("double confirm: %v", err)
	}
	in, err = m.Confirm("c")
	if err != nil || in.State != Ready {
		t.Fatalf("confirm c: %v %v", err, in.State)
	}

	if _, err := m.Start("b"); !isKind(err, types.FailInvariant) {
		t.Errorf("non-creator start: %v", err)
	}
	in, err = m.Start("a")
	if err != nil || in.State != Started {
		t.Fatalf("start: %v", err)
	}
	if _, err := m.Start("a"); !isKind(err, types.FailPhase) {
		t.Errorf("second start: %v", err)
	}

	m.Finish(in.ID)
	if in.State != Resolved || m.Len() != 0 {
		t.Errorf("state=%v len=%d", in.State, m.Len())
	}
	if _, ok := m.Of("a"); ok {
		t.Error("member still bound after resolution")
	}
}

func TestCreate_SoloIsReady(t *testing.T) {
	m := NewManager()
	in, err := m.Create("a", nil, tier, 5, 0)
	if err != nil || in.State != Ready {
		t.Fatalf("solo: %v %+v", err, in)
	}
}

func TestCreate_Rejections(t *testing.T) {
	m := NewManager()
	if _, err := m.Create("a", []string{"b", "c", "d", "e", "f"}, tier, 5, 0); !isKind(err, types.FailInvariant) {
		t.Errorf("oversized party: %v", err)
	}
	if _, err := m.Create("a", []string{"b"}, tier, 5, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create("c", []string{"b"}, tier, 5, 0); !isKind(err, types.FailPhase) {
		t.Errorf("member in two parties: %v", err)
	}
}

func TestExpire(t *testing.T) {
	m := NewManager()
	old, _ := m.Create("a", []string{"b"}, tier, 5, 0)
	running, _ := m.Create("c", nil, tier, 5, 0)
	m.Start("c")

	gone := m.Expire(900, 900)
	if len(gone) != 1 || gone[0].ID != old.ID {
		t.Fatalf("expired = %v", gone)
	}
	if _, ok := m.Of("b"); ok {
		t.Error("expired member still bound")
	}
	if in, ok := m.Of("c"); !ok || in.ID != running.ID {
		t.Error("started instance expired")
	}
}

func TestDisband(t *testing.T) {
	m := NewManager()
	m.Create("a", []string{"b"}, tier, 5, 0)
	if _, err := m.Disband("b"); err != nil {
		t.Fatalf("disband: %v", err)
	}
	if m.Len() != 0 {
		t.Error("instance survived disband")
	}
}

package cluster_test

import (
	"testing"

	"github.com/nabbar/x0d/cluster"
)

func newUsableMember(t *testing.T, name string, capacity int) *cluster.Member {
	t.Helper()
	m := cluster.NewMember(cluster.MemberConfig{Name: name, Host: "127.0.0.1", Port: 8080, Capacity: capacity, Enabled: true}, nil)
	m.SetOnline(true)
	return m
}

func TestRoundRobinPicksFirstWithCapacity(t *testing.T) {
	a := newUsableMember(t, "a", 1)
	b := newUsableMember(t, "b", 1)
	s := cluster.NewRoundRobinScheduler()

	a.TryAcquire()

	picked, result := s.Pick([]*cluster.Member{a, b})
	if result != cluster.SchedSuccess {
		t.Fatalf("expected success, got %v", result)
	}
	if picked.Name() != "b" {
		t.Fatalf("expected to route around the full member, got %s", picked.Name())
	}
}

func TestRoundRobinReportsOverloaded(t *testing.T) {
	a := newUsableMember(t, "a", 1)
	a.TryAcquire()

	s := cluster.NewRoundRobinScheduler()
	_, result := s.Pick([]*cluster.Member{a})
	if result != cluster.SchedOverloaded {
		t.Fatalf("expected overloaded, got %v", result)
	}
}

func TestRoundRobinReportsUnavailable(t *testing.T) {
	a := cluster.NewMember(cluster.MemberConfig{Name: "a", Host: "127.0.0.1", Port: 8080, Capacity: 1, Enabled: false}, nil)

	s := cluster.NewRoundRobinScheduler()
	_, result := s.Pick([]*cluster.Member{a})
	if result != cluster.SchedUnavailable {
		t.Fatalf("expected unavailable, got %v", result)
	}
}

func TestChanceSchedulerPicksAmongCapacity(t *testing.T) {
	a := newUsableMember(t, "a", 5)
	s := cluster.NewChanceScheduler()

	picked, result := s.Pick([]*cluster.Member{a})
	if result != cluster.SchedSuccess || picked.Name() != "a" {
		t.Fatalf("expected success picking the only candidate, got %v/%v", picked, result)
	}
}

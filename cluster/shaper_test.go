package cluster_test

import (
	"testing"
	"time"

	"github.com/nabbar/x0d/cluster"
)

func TestBucketAddChildEnforcesRateBudget(t *testing.T) {
	root := cluster.NewBucket("root", 1.0, 1.0, time.Second)
	ok := cluster.NewBucket("a", 0.6, 0.6, time.Second)
	if err := root.AddChild(ok); err != nil {
		t.Fatalf("expected child to fit under parent rate, got %v", err)
	}

	tooMuch := cluster.NewBucket("b", 0.6, 0.6, time.Second)
	if err := root.AddChild(tooMuch); err == nil {
		t.Fatal("expected ConfigurationError when children rate sum exceeds parent")
	}
}

func TestBucketAddChildRejectsCeilBelowRate(t *testing.T) {
	root := cluster.NewBucket("root", 1.0, 1.0, time.Second)
	bad := cluster.NewBucket("a", 0.5, 0.2, time.Second)
	if err := root.AddChild(bad); err == nil {
		t.Fatal("expected error when ceil < rate")
	}
}

func TestBucketGetPutRespectsCeil(t *testing.T) {
	root := cluster.NewBucket("root", 1.0, 0.5, time.Second)
	root.Resize(10)

	if !root.Get(5) {
		t.Fatal("expected to grant tokens within ceil")
	}
	if root.Get(1) {
		t.Fatal("expected ceil to deny further grants")
	}
	root.Put(5)
	if !root.Get(5) {
		t.Fatal("expected tokens to be available again after Put")
	}
}

func TestBucketEnqueueDequeue(t *testing.T) {
	b := cluster.NewBucket("root", 1.0, 1.0, 50*time.Millisecond)

	ticket := b.Enqueue()
	if b.QueueLen() != 1 {
		t.Fatalf("expected 1 queued, got %d", b.QueueLen())
	}

	if !b.Dequeue() {
		t.Fatal("expected Dequeue to find the queued ticket")
	}

	select {
	case <-ticket.Done():
		if ticket.Expired() {
			t.Fatal("expected ticket to be dequeued, not expired")
		}
	case <-time.After(time.Second):
		t.Fatal("expected ticket.Done() to fire after Dequeue")
	}
}

func TestBucketEnqueueExpires(t *testing.T) {
	b := cluster.NewBucket("root", 1.0, 1.0, 20*time.Millisecond)
	ticket := b.Enqueue()

	select {
	case <-ticket.Done():
		if !ticket.Expired() {
			t.Fatal("expected ticket to expire")
		}
	case <-time.After(time.Second):
		t.Fatal("expected queue timeout to fire")
	}
	if b.QueueLen() != 0 {
		t.Fatalf("expected queue to be empty after expiry, got %d", b.QueueLen())
	}
}

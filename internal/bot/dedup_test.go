package bot

import (
	"testing"
	"time"
)

func TestDedupSeen(t *testing.T) {
	d := newDedup(time.Minute)

	if d.Seen("telegram", "907") {
		t.Fatal("first delivery flagged as duplicate")
	}
	if !d.Seen("telegram", "907") {
		t.Fatal("second delivery not flagged")
	}
	if d.Seen("whatsapp", "907") {
		t.Error("same id on another channel must not collide")
	}
}

func TestDedupEmptyIDNeverDuplicate(t *testing.T) {
	d := newDedup(time.Minute)
	if d.Seen("web", "") || d.Seen("web", "") {
		t.Error("messages without an id must never be deduplicated")
	}
}

func TestDedupExpires(t *testing.T) {
	d := newDedup(time.Millisecond)
	if d.Seen("telegram", "1") {
		t.Fatal("unexpected duplicate")
	}
	time.Sleep(5 * time.Millisecond)
	if d.Seen("telegram", "1") {
		t.Error("expired entry still flagged as duplicate")
	}
}

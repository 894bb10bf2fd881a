package acp

import "testing"

func TestIncomingLimiterAllowsUpToBurstThenBlocks(t *testing.T) {
	l := NewIncomingLimiter(0, 2)

	if !l.Allow() || !l.Allow() {
		t.Fatalf("expected the first two calls within burst to be allowed")
	}
	if l.Allow() {
		t.Fatalf("expected a third call to be denied once burst and rps are exhausted")
	}
}

func TestNilIncomingLimiterAlwaysAllows(t *testing.T) {
	var l *IncomingLimiter
	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("a nil limiter should never throttle")
		}
	}
}

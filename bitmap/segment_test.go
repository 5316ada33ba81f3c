package bitmap

import "testing"

func TestSegmentUpdateBitBumpsGuard(t *testing.T) {
	var s segment
	tok0 := s.Token()
	s.UpdateBit(3, true)
	tok1 := s.Token()
	if tok1 == tok0 {
		t.Fatalf("expected guard to change after UpdateBit, got %d both times", tok0)
	}
	if !s.IsSet(3) {
		t.Fatalf("expected bit 3 set")
	}
	s.UpdateBit(3, false)
	tok2 := s.Token()
	if tok2 == tok1 {
		t.Fatalf("expected guard to change again, stayed at %d", tok1)
	}
	if s.IsSet(3) {
		t.Fatalf("expected bit 3 clear")
	}
}

func TestSegmentTryUpdateBitGuardedRejectsStaleToken(t *testing.T) {
	var s segment
	_, tok := s.Get(0)
	s.UpdateBit(5, true) // bumps the guard out from under the stale token
	if s.TryUpdateBitGuarded(tok, 0, true) {
		t.Fatalf("expected guarded update with stale token to fail")
	}
	_, freshTok := s.Get(0)
	if !s.TryUpdateBitGuarded(freshTok, 0, true) {
		t.Fatalf("expected guarded update with fresh token to succeed")
	}
	if !s.IsSet(0) {
		t.Fatalf("expected bit 0 set")
	}
}

func TestSegmentPopCountRespectsCap(t *testing.T) {
	var s segment
	for i := range 10 {
		s.UpdateBit(i, true)
	}
	if got := s.PopCount(56); got != 10 {
		t.Fatalf("PopCount(56) = %d, want 10", got)
	}
	if got := s.PopCount(5); got != 5 {
		t.Fatalf("PopCount(5) = %d, want 5", got)
	}
	if got := s.PopCount(0); got != 0 {
		t.Fatalf("PopCount(0) = %d, want 0", got)
	}
}

func TestSegmentInsertRemoveBitAt(t *testing.T) {
	var s segment
	s.UpdateBit(0, true)
	s.UpdateBit(3, true)
	// insert a clear bit at index 1: bit0 stays, bit3 (now 4) stays set.
	s.InsertBitAt(1, false)
	if !s.IsSet(0) || s.IsSet(1) || !s.IsSet(4) {
		t.Fatalf("unexpected state after InsertBitAt: bit0=%v bit1=%v bit4=%v", s.IsSet(0), s.IsSet(1), s.IsSet(4))
	}
	s.RemoveBitAt(1)
	if !s.IsSet(0) || !s.IsSet(3) {
		t.Fatalf("unexpected state after RemoveBitAt: bit0=%v bit3=%v", s.IsSet(0), s.IsSet(3))
	}
}

func TestSegmentSetAllClearAll(t *testing.T) {
	var s segment
	s.SetAll(10)
	if got := s.PopCount(10); got != 10 {
		t.Fatalf("PopCount after SetAll(10) = %d, want 10", got)
	}
	if got := s.PopCount(56); got != 10 {
		t.Fatalf("PopCount(56) after SetAll(10) = %d, want 10 (bits beyond cap stay clear)", got)
	}
	s.ClearAll()
	if got := s.PopCount(56); got != 0 {
		t.Fatalf("PopCount after ClearAll = %d, want 0", got)
	}
}

func TestSegment2BitSummaryRoundTrip(t *testing.T) {
	var s segment
	if st := s.Get2Bit(4); st != summaryEmpty {
		t.Fatalf("expected fresh summary entry to be empty, got %v", st)
	}
	if !s.Set2Bit(4, summaryPartial) {
		t.Fatalf("expected Set2Bit to report a change")
	}
	if s.Set2Bit(4, summaryPartial) {
		t.Fatalf("expected Set2Bit to report no change when value is unchanged")
	}
	if st := s.Get2Bit(4); st != summaryPartial {
		t.Fatalf("Get2Bit(4) = %v, want partial", st)
	}
	// Neighbouring entries must be untouched.
	if st := s.Get2Bit(3); st != summaryEmpty {
		t.Fatalf("neighbour entry 3 disturbed: %v", st)
	}
}

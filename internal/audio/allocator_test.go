package audio

import "testing"

func TestNoteToFrequencyMiddleC(t *testing.T) {
	f := noteToFrequency(60)
	if f < 261 || f > 262 {
		t.Errorf("expected middle C near 261.6Hz, got %v", f)
	}
}

func TestNoteToFrequencyOctaveDoubling(t *testing.T) {
	low := noteToFrequency(60)
	high := noteToFrequency(72)
	ratio := high / low
	if ratio < 1.99 || ratio > 2.01 {
		t.Errorf("expected one octave up to double frequency, got ratio %v", ratio)
	}
}

func TestVoiceAllocatorStrikeAssignsChannel(t *testing.T) {
	a := NewVoiceAllocator(4, 44100, 64)
	a.Strike(60)

	idx, ok := a.ActiveNote(60)
	if !ok {
		t.Fatal("expected note 60 to be assigned to a channel")
	}
	if idx < 0 || idx >= 4 {
		t.Fatalf("channel index %d out of range", idx)
	}
}

func TestVoiceAllocatorStrikeUsesUnusedChannelsFirst(t *testing.T) {
	a := NewVoiceAllocator(4, 44100, 64)
	a.Strike(60)
	a.Strike(62)
	a.Strike(64)

	idx60, _ := a.ActiveNote(60)
	idx62, _ := a.ActiveNote(62)
	idx64, _ := a.ActiveNote(64)

	seen := map[int]bool{idx60: true, idx62: true, idx64: true}
	if len(seen) != 3 {
		t.Errorf("expected three distinct channels, got indices %d %d %d", idx60, idx62, idx64)
	}
}

func TestVoiceAllocatorStealsLeastRecentlyStruck(t *testing.T) {
	a := NewVoiceAllocator(2, 44100, 64)
	a.Strike(60)
	a.Strike(62)

	idx60Before, _ := a.ActiveNote(60)

	// A third strike must steal the least-recently-struck channel (60's),
	// since both voices are already in use.
	a.Strike(64)

	if _, stillActive := a.ActiveNote(60); stillActive {
		t.Error("expected note 60 to be displaced by stealing")
	}
	idx64, ok := a.ActiveNote(64)
	if !ok {
		t.Fatal("expected note 64 to be assigned a channel")
	}
	if idx64 != idx60Before {
		t.Errorf("expected the stolen channel %d to be reused, got %d", idx60Before, idx64)
	}
}

func TestVoiceAllocatorRestrikeReusesSameChannel(t *testing.T) {
	a := NewVoiceAllocator(4, 44100, 64)
	a.Strike(60)
	idx1, _ := a.ActiveNote(60)

	a.Strike(60)
	idx2, ok := a.ActiveNote(60)
	if !ok {
		t.Fatal("expected note 60 to remain assigned after a restrike")
	}
	if idx1 != idx2 {
		t.Errorf("expected restrike to reuse channel %d, got %d", idx1, idx2)
	}
}

func TestVoiceAllocatorReleaseDoesNotImmediatelyFreeChannel(t *testing.T) {
	a := NewVoiceAllocator(2, 44100, 64)
	a.Strike(60)
	a.Release(60)

	if _, ok := a.ActiveNote(60); !ok {
		t.Error("expected the channel to remain assigned until its envelope finishes")
	}
}

func TestVoiceAllocatorChannelDoneFreesSlot(t *testing.T) {
	a := NewVoiceAllocator(1, 44100, 64)
	for _, ch := range a.Channels() {
		env := EnvelopeParameters{
			AttackSeconds: 0.0001, DecaySeconds: 0.0001, ReleaseSeconds: 0.0001,
			SustainLevel: 0.5, Hold: false,
		}
		_ = ch.SetEnvelope(0, env)
		_ = ch.SetEnvelope(1, env)
	}

	a.Strike(60)
	for i := 0; i < 80; i++ {
		for _, ch := range a.Channels() {
			ch.Pull()
		}
	}

	if len(a.Order()) != 0 {
		t.Errorf("expected the order list to be empty once the voice finishes, got %v", a.Order())
	}
}

package event

import "testing"

func TestEventsArriveAfterSwap(t *testing.T) {
	b := NewBus()
	var got []uint64
	Subscribe(b, func(e HeroDied) { got = append(got, e.HeroUID) })

	Emit(b, HeroDied{HeroUID: 1001})
	Emit(b, HeroDied{HeroUID: 1002})
	if b.Pending() != 2 {
		t.Fatalf("Pending = %d", b.Pending())
	}

	b.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("delivered before swap: %v", got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 2 || got[0] != 1001 || got[1] != 1002 {
		t.Fatalf("got %v", got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 2 {
		t.Fatalf("events redelivered: %v", got)
	}
}

func TestDispatchKeepsSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(WaveSpawned) { got = append(got, "wave") })
	Subscribe(b, func(EntityRemoved) { got = append(got, "removed") })

	Emit(b, EntityRemoved{UID: 5})
	Emit(b, WaveSpawned{Wave: 1})
	b.SwapBuffers()
	b.DispatchAll()

	if len(got) != 2 || got[0] != "wave" || got[1] != "removed" {
		t.Fatalf("got %v", got)
	}
}

func TestUnsubscribedEventsAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, PlayerLeft{SessionID: 1})
	b.SwapBuffers()
	b.DispatchAll()
}

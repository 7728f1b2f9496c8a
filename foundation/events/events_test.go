package events_test

import (
	"testing"

	"github.com/ardanlabs/ledger/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	evts := events.New()

	t.Log("Given the need to fan out events to receivers.")
	{
		ch1 := evts.Acquire("1")
		ch2 := evts.Acquire("2")

		if evts.Acquire("1") != ch1 {
			t.Fatalf("\t%s\tShould get the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould get the same channel for the same id.", success)

		evts.Send("ledger: commit: BLOCK")

		for i, ch := range []<-chan string{ch1, ch2} {
			if got := <-ch; got != "ledger: commit: BLOCK" {
				t.Fatalf("\t%s\tShould deliver the event to receiver %d, got %q", failed, i, got)
			}
		}
		t.Logf("\t%s\tShould deliver the event to every receiver.", success)

		if err := evts.Release("1"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a receiver: %v", failed, err)
		}

		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close a released channel.", failed)
		}
		t.Logf("\t%s\tShould close a released channel.", success)

		if err := evts.Release("1"); err == nil {
			t.Fatalf("\t%s\tShould fail to release an unknown id.", failed)
		}
		t.Logf("\t%s\tShould fail to release an unknown id.", success)

		for range 200 {
			evts.Send("flood")
		}
		t.Logf("\t%s\tShould not block on a full receiver.", success)

		evts.Shutdown()
		if evts.Count() != 0 {
			t.Fatalf("\t%s\tShould remove every receiver on shutdown.", failed)
		}
		t.Logf("\t%s\tShould remove every receiver on shutdown.", success)
	}
}

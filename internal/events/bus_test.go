package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan NodePowerChangedEvent, 1)

	unsub := bus.Subscribe(func(e NodePowerChangedEvent) {
		received <- e
	})
	defer unsub()

	event := NodePowerChangedEvent{
		Node:      3,
		On:        true,
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Node != event.Node || got.On != event.On {
		t.Errorf("Expected %+v, got %+v", event, got)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan NodeResetEvent, 1)
	received2 := make(chan NodeResetEvent, 1)

	unsub1 := bus.Subscribe(func(e NodeResetEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e NodeResetEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(NodeResetEvent{Node: 2})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan PowerErrorEvent, 1)

	unsub := bus.Subscribe(func(e PowerErrorEvent) {
		received <- e
	})

	bus.Publish(PowerErrorEvent{Code: "LINE_SET_FAILED"})
	<-received

	unsub()

	bus.Publish(PowerErrorEvent{Code: "ATTRIBUTE_WRITE_FAILED"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	powerReceived := make(chan bool, 1)
	ledReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ NodePowerChangedEvent) {
		powerReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ LEDChangedEvent) {
		ledReceived <- true
	})
	defer unsub2()

	bus.Publish(NodePowerChangedEvent{Node: 1, On: true})
	<-powerReceived

	select {
	case <-ledReceived:
		t.Fatal("LED subscriber should NOT have received NodePowerChangedEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(LEDChangedEvent{LED: "status", On: true})
	<-ledReceived

	select {
	case <-powerReceived:
		t.Fatal("Power subscriber should NOT have received LEDChangedEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ NodePowerChangedEvent) {
		receivedCh <- true
	})
	defer unsub()

	for i := range numGoroutines {
		wg.Add(1)
		go func(node int) {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(NodePowerChangedEvent{
					Node:      node%4 + 1,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}(i)
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()

	tests := []struct {
		name  string
		event Event
	}{
		{"NodePowerChanged", NodePowerChangedEvent{Node: 1, On: true}},
		{"NodeReset", NodeResetEvent{Node: 4}},
		{"LEDChanged", LEDChangedEvent{LED: "power", On: true}},
		{"PowerError", PowerErrorEvent{Operation: "reset", Code: "LINE_SET_FAILED"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(_ *testing.T) {
			received := make(chan Event, 1)

			var unsub func()
			switch tt.event.(type) {
			case NodePowerChangedEvent:
				unsub = bus.Subscribe(func(e NodePowerChangedEvent) { received <- e })
			case NodeResetEvent:
				unsub = bus.Subscribe(func(e NodeResetEvent) { received <- e })
			case LEDChangedEvent:
				unsub = bus.Subscribe(func(e LEDChangedEvent) { received <- e })
			case PowerErrorEvent:
				unsub = bus.Subscribe(func(e PowerErrorEvent) { received <- e })
			}
			defer unsub()

			bus.Publish(tt.event)
			<-received
		})
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()

	unsub := bus.Subscribe(func(_ string) {})
	if unsub == nil {
		t.Fatal("Subscribe with unknown handler type returned nil unsubscribe")
	}
	unsub()
}

func TestPowerErrorEvent_JSON(t *testing.T) {
	data, err := json.Marshal(PowerErrorEvent{
		Operation: "set_power",
		Code:      "ATTRIBUTE_WRITE_FAILED",
		Target:    "/sys/bus/platform/devices/node3-power/state",
		Error:     "permission denied",
	})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result map[string]any
	if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
		t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
	}

	for _, key := range []string{"operation", "code", "target", "error", "timestamp"} {
		if _, ok := result[key]; !ok {
			t.Errorf("Expected key %q in %s", key, data)
		}
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[LEDChangedEvent](bus, ch)
	defer unsub()

	bus.Publish(LEDChangedEvent{LED: "status", On: true})

	received := <-ch
	ledEvent, ok := received.(LEDChangedEvent)
	if !ok {
		t.Fatalf("Expected LEDChangedEvent, got %T", received)
	}
	if ledEvent.LED != "status" || !ledEvent.On {
		t.Errorf("Unexpected event %+v", ledEvent)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeToChannel[NodeResetEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(NodeResetEvent{Node: 1})
		done <- true
	}()

	<-done
}

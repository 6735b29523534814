// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestSubscribePublish(t *testing.T) {
	eb := NewEventBus(nil)
	defer eb.Stop()
	_, evtCh := eb.Subscribe("test.event")
	eb.Publish("test.event", NewEvent("test.event", "hello"))
	select {
	case evt := <-evtCh:
		if evt.Data.(string) != "hello" {
			t.Fatalf("did not get expected event data: %v", evt.Data)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	eb := NewEventBus(nil)
	defer eb.Stop()
	// Publishing without subscribers should not block or panic
	eb.Publish("test.event", NewEvent("test.event", nil))
}

func TestSubscribeFunc(t *testing.T) {
	eb := NewEventBus(nil)
	defer eb.Stop()
	var wg sync.WaitGroup
	wg.Add(2)
	eb.SubscribeFunc("test.event", func(evt Event) {
		wg.Done()
	})
	eb.Publish("test.event", NewEvent("test.event", 1))
	eb.Publish("test.event", NewEvent("test.event", 2))
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for handler calls")
	}
}

func TestUnsubscribe(t *testing.T) {
	eb := NewEventBus(nil)
	defer eb.Stop()
	subId, evtCh := eb.Subscribe("test.event")
	eb.Unsubscribe("test.event", subId)
	if _, ok := <-evtCh; ok {
		t.Fatalf("expected subscriber channel to be closed")
	}
	// Publishing after unsubscribe should not panic
	eb.Publish("test.event", NewEvent("test.event", nil))
}

func TestStopClosesSubscribers(t *testing.T) {
	eb := NewEventBus(nil)
	_, evtCh := eb.Subscribe("test.event")
	eb.Stop()
	if _, ok := <-evtCh; ok {
		t.Fatalf("expected subscriber channel to be closed after stop")
	}
	// Publish after stop is a no-op
	eb.Publish("test.event", NewEvent("test.event", nil))
}

func TestStopReleasesSubscribeFuncGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := NewEventBus(nil)
	var wg sync.WaitGroup
	wg.Add(1)
	eb.SubscribeFunc("test.event", func(evt Event) {
		wg.Done()
	})
	eb.Publish("test.event", NewEvent("test.event", nil))
	wg.Wait()
	eb.Stop()
}

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

package event_test

import (
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/etched/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusSingleSubscriber(t *testing.T) {
	testEvtType := event.CertificateMintedEventType
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, event.CertificateMintedEvent{TokenId: 7}))
	evt := receive(t, subCh)
	data, ok := evt.Data.(event.CertificateMintedEvent)
	require.True(t, ok, "unexpected data type %T", evt.Data)
	assert.Equal(t, uint64(7), data.TokenId)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	testEvtType := event.ValidatorAddedEventType
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 999))
	assert.Equal(t, 999, receive(t, sub1Ch).Data)
	assert.Equal(t, 999, receive(t, sub2Ch).Data)
}

func TestEventBusWildcard(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, allCh := eb.Subscribe(event.AllEvents)
	_, rejectCh := eb.Subscribe(event.CertificateRejectedEventType)
	eb.Publish(event.CertificateRequestedEventType, event.NewEvent(event.CertificateRequestedEventType, 1))
	eb.Publish(event.CertificateRejectedEventType, event.NewEvent(event.CertificateRejectedEventType, 2))
	assert.Equal(t, event.CertificateRequestedEventType, receive(t, allCh).Type)
	assert.Equal(t, event.CertificateRejectedEventType, receive(t, allCh).Type)
	assert.Equal(t, 2, receive(t, rejectCh).Data)
	select {
	case evt := <-rejectCh:
		t.Fatalf("unexpected event: %v", evt)
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	testEvtType := event.EventType("test.event")
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	select {
	case _, ok := <-subCh:
		assert.False(t, ok, "received unexpected event")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed after Unsubscribe")
	}
}

func TestPublishAsyncOrdering(t *testing.T) {
	const count = 50
	testEvtType := event.EventType("test.ordered")
	eb := event.NewEventBus(nil, nil)
	_, subCh := eb.Subscribe(testEvtType)
	for i := range count {
		evt := event.NewEvent(testEvtType, i)
		evt.Sequence = uint64(i + 1)
		require.True(t, eb.PublishAsync(testEvtType, evt))
	}
	for i := range count {
		evt := receive(t, subCh)
		assert.Equal(t, uint64(i+1), evt.Sequence)
	}
	eb.Stop()
	assert.False(t, eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, 0)))
}

func TestStopDeliversQueuedEvents(t *testing.T) {
	testEvtType := event.EventType("test.stop")
	eb := event.NewEventBus(nil, nil)
	var mu sync.Mutex
	got := 0
	done := make(chan struct{})
	_, subCh := eb.Subscribe(testEvtType)
	go func() {
		defer close(done)
		for range subCh {
			mu.Lock()
			got++
			mu.Unlock()
		}
	}()
	for range 10 {
		eb.PublishAsync(testEvtType, event.NewEvent(testEvtType, nil))
	}
	eb.Stop()
	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, got)
	// Stop is idempotent
	eb.Stop()
}

func TestSubscribeFunc(t *testing.T) {
	testEvtType := event.EventType("test.func")
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	gotCh := make(chan any, 1)
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		gotCh <- evt.Data
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "hello"))
	select {
	case v := <-gotCh:
		assert.Equal(t, "hello", v)
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}

func TestEventBusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	testEvtType := event.EventType("test.metrics")
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, nil))
	receive(t, subCh)
	count, err := testutil.GatherAndCount(reg, "etched_event_published_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPublishUnsubscribeRace(t *testing.T) {
	for range 100 {
		eb := event.NewEventBus(nil, nil)
		typ := event.EventType("race.test")
		subId, ch := eb.Subscribe(typ)
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := range 10 {
				eb.Publish(typ, event.NewEvent(typ, j))
			}
		}()
		go func() {
			defer wg.Done()
			eb.Unsubscribe(typ, subId)
			eb.Stop()
		}()
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		wg.Wait()
	}
}

// Package events carries mint lifecycle notifications between services.
package events

import (
	evbus "github.com/asaskevich/EventBus"

	"github.com/meur/mintforge/internal/models"
)

// Topics
const (
	TopicMintConfirmed = "mint:confirmed"
	TopicMintFailed    = "mint:failed"
)

// MintConfirmed is published once a mint transaction succeeds
type MintConfirmed struct {
	Mint    models.Mint
	Receipt models.Receipt
}

// MintFailed is published when a recorded mint cannot complete
type MintFailed struct {
	Mint models.Mint
	Err  error
}

// Bus is a typed facade over EventBus
type Bus struct {
	bus evbus.Bus
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

// PublishMintConfirmed notifies subscribers synchronously
func (b *Bus) PublishMintConfirmed(e MintConfirmed) {
	if b == nil {
		return
	}
	b.bus.Publish(TopicMintConfirmed, e)
}

// PublishMintFailed notifies subscribers synchronously
func (b *Bus) PublishMintFailed(e MintFailed) {
	if b == nil {
		return
	}
	b.bus.Publish(TopicMintFailed, e)
}

// OnMintConfirmed registers fn for every confirmed mint
func (b *Bus) OnMintConfirmed(fn func(MintConfirmed)) error {
	return b.bus.Subscribe(TopicMintConfirmed, fn)
}

// OnMintFailed registers fn for every failed mint
func (b *Bus) OnMintFailed(fn func(MintFailed)) error {
	return b.bus.Subscribe(TopicMintFailed, fn)
}

// WaitAsync blocks until asynchronous handlers finish
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

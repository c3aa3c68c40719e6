package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meur/mintforge/internal/models"
)

func TestMintConfirmedReachesSubscribers(t *testing.T) {
	bus := NewBus()

	var got []string
	require.NoError(t, bus.OnMintConfirmed(func(e MintConfirmed) {
		got = append(got, e.Receipt.Digest)
	}))
	require.NoError(t, bus.OnMintConfirmed(func(e MintConfirmed) {
		got = append(got, e.Mint.Sender)
	}))

	bus.PublishMintConfirmed(MintConfirmed{
		Mint:    models.Mint{Sender: "0xabc"},
		Receipt: models.Receipt{Digest: "D1"},
	})

	assert.ElementsMatch(t, []string{"D1", "0xabc"}, got)
}

func TestMintFailed(t *testing.T) {
	bus := NewBus()
	var got error
	require.NoError(t, bus.OnMintFailed(func(e MintFailed) { got = e.Err }))

	bus.PublishMintFailed(MintFailed{Err: errors.New("upload failed")})
	assert.EqualError(t, got, "upload failed")
}

func TestNilBusPublishIsNoop(t *testing.T) {
	var bus *Bus
	bus.PublishMintConfirmed(MintConfirmed{})
	bus.PublishMintFailed(MintFailed{})
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigSnapshot_Hash(t *testing.T) {
	snap := ConfigSnapshot{
		Pages: []Page{
			{ID: "p1", Name: "Main", Buttons: []Button{{ID: "b1", Label: "Terminal", Action: "run"}}},
		},
		Appearance: map[string]any{"theme": "dark"},
	}

	first := snap.Hash()
	second := snap.Hash()

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second, "hash must be stable for identical content")

	snap.Pages[0].Buttons[0].Label = "Shell"
	assert.NotEqual(t, first, snap.Hash(), "hash must change when content changes")
}

func TestOAuthState_ExpiredAt(t *testing.T) {
	created := time.Now()
	state := OAuthState{Nonce: "nonce", CreatedAt: created}

	assert.False(t, state.ExpiredAt(created.Add(time.Minute)))
	assert.False(t, state.ExpiredAt(created.Add(OAuthStateTTL)))
	assert.True(t, state.ExpiredAt(created.Add(OAuthStateTTL+time.Second)))
}

func TestSyncAction_IsValid(t *testing.T) {
	assert.True(t, SyncActionUpload.IsValid())
	assert.True(t, SyncActionDownload.IsValid())
	assert.True(t, SyncActionResolve.IsValid())
	assert.False(t, SyncAction("merge").IsValid())
}

func TestDeviceIdentity_Label(t *testing.T) {
	device := DeviceIdentity{Platform: "linux", Hostname: "studio", Username: "alice"}
	assert.Equal(t, "alice@studio (linux)", device.Label())
}

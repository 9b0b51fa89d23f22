package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlayer(t *testing.T) {
	tests := []struct {
		name       string
		id         PlayerID
		handle     string
		wantHandle string
	}{
		{
			name:       "keeps plain handle",
			id:         1,
			handle:     "alice",
			wantHandle: "alice",
		},
		{
			name:       "strips leading at sign",
			id:         2,
			handle:     "@bob",
			wantHandle: "bob",
		},
		{
			name:       "allows empty handle",
			id:         3,
			handle:     "",
			wantHandle: "",
		},
		{
			name:       "keeps unicode handle",
			id:         4,
			handle:     "гравець",
			wantHandle: "гравець",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now()
			player := NewPlayer(tt.id, tt.handle)
			after := time.Now()

			assert.Equal(t, tt.id, player.ID)
			assert.Equal(t, tt.wantHandle, player.Handle)
			assert.Empty(t, player.DisplayName)
			assert.False(t, player.HasName())
			assert.False(t, player.JoinedAt.Before(before))
			assert.False(t, player.JoinedAt.After(after))
		})
	}
}

func TestPlayerRegistryRegister(t *testing.T) {
	t.Run("first registration adds the player", func(t *testing.T) {
		r := NewPlayerRegistry()

		assert.Equal(t, Registered, r.Register(1, "alice"))
		assert.Equal(t, 1, r.Count())
		assert.True(t, r.Contains(1))
	})

	t.Run("registering twice is a no-op", func(t *testing.T) {
		r := NewPlayerRegistry()
		r.Register(1, "alice")
		require.NoError(t, r.SetDisplayName(1, "Alice"))

		assert.Equal(t, AlreadyRegistered, r.Register(1, "alice-renamed"))
		assert.Equal(t, 1, r.Count())

		p, ok := r.Get(1)
		require.True(t, ok)
		assert.Equal(t, "alice", p.Handle)
		assert.Equal(t, "Alice", p.DisplayName)
	})

	t.Run("list keeps join order", func(t *testing.T) {
		r := NewPlayerRegistry()
		r.Register(30, "c")
		r.Register(10, "a")
		r.Register(20, "b")

		var got []PlayerID
		for _, p := range r.List() {
			got = append(got, p.ID)
		}
		assert.Equal(t, []PlayerID{30, 10, 20}, got)
		assert.Equal(t, []PlayerID{10, 20, 30}, r.IDs())
	})

	t.Run("list returns copies", func(t *testing.T) {
		r := NewPlayerRegistry()
		r.Register(1, "alice")

		list := r.List()
		list[0].DisplayName = "changed"

		p, _ := r.Get(1)
		assert.Empty(t, p.DisplayName)
	})
}

func TestPlayerRegistrySetDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(r *PlayerRegistry)
		id      PlayerID
		input   string
		wantErr error
		want    string
	}{
		{
			name:  "sets name for registered player",
			setup: func(r *PlayerRegistry) { r.Register(1, "alice") },
			id:    1,
			input: "Alice",
			want:  "Alice",
		},
		{
			name:  "trims whitespace",
			setup: func(r *PlayerRegistry) { r.Register(1, "alice") },
			id:    1,
			input: "  Alice \n",
			want:  "Alice",
		},
		{
			name:    "rejects unknown player",
			setup:   func(r *PlayerRegistry) {},
			id:      1,
			input:   "Alice",
			wantErr: ErrNotJoined,
		},
		{
			name:    "rejects blank name",
			setup:   func(r *PlayerRegistry) { r.Register(1, "alice") },
			id:      1,
			input:   "   ",
			wantErr: ErrEmptyName,
		},
		{
			name: "rejects second name",
			setup: func(r *PlayerRegistry) {
				r.Register(1, "alice")
				r.SetDisplayName(1, "First")
			},
			id:      1,
			input:   "Second",
			wantErr: ErrNameAlreadySet,
			want:    "First",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewPlayerRegistry()
			tt.setup(r)

			err := r.SetDisplayName(tt.id, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			if p, ok := r.Get(tt.id); ok {
				assert.Equal(t, tt.want, p.DisplayName)
			}
		})
	}
}

func TestPlayerRegistryReset(t *testing.T) {
	r := NewPlayerRegistry()
	r.Register(1, "alice")
	r.Register(2, "bob")

	r.Reset()

	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.List())
	assert.Equal(t, Registered, r.Register(1, "alice"))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorPrettyName(t *testing.T) {
	t.Run("global name differs from username", func(t *testing.T) {
		a := &Actor{ID: "1", Username: "luxdvl", GlobalName: "Lux"}
		assert.Equal(t, "Lux (luxdvl)", a.PrettyName())
	})

	t.Run("no global name", func(t *testing.T) {
		a := &Actor{ID: "1", Username: "luxdvl"}
		assert.Equal(t, "luxdvl", a.PrettyName())
	})

	t.Run("global name equals username", func(t *testing.T) {
		a := &Actor{ID: "1", Username: "luxdvl", GlobalName: "luxdvl"}
		assert.Equal(t, "luxdvl", a.PrettyName())
	})
}

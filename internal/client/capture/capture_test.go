package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/yearbook/internal/models"
)

var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestSelection_MutuallyExclusive(t *testing.T) {
	var s Selection
	assert.Equal(t, FromNone, s.Kind())
	assert.Nil(t, s.Image())
	assert.Equal(t, "no photo selected", s.Describe())

	s.SetFile(&models.Image{Filename: "me.jpg", Data: jpeg})
	assert.Equal(t, FromFile, s.Kind())
	assert.Equal(t, "me.jpg", s.Image().Filename)
	assert.Equal(t, "image/jpeg", s.Image().ContentType)

	s.SetCapture(&models.Image{Filename: "ignored.png", Data: jpeg})
	assert.Equal(t, FromCamera, s.Kind())
	assert.Equal(t, CapturedFilename, s.Image().Filename)

	s.SetFile(&models.Image{Data: jpeg})
	assert.Equal(t, FromFile, s.Kind())
	assert.Equal(t, CapturedFilename, s.Image().Filename)

	s.SetFile(&models.Image{})
	assert.Equal(t, FromNone, s.Kind())
	assert.Nil(t, s.Image())
}

func TestSelection_DoesNotAliasInput(t *testing.T) {
	var s Selection
	in := &models.Image{Filename: "a.jpg", Data: jpeg}
	s.SetFile(in)
	in.Filename = "changed.jpg"
	assert.Equal(t, "a.jpg", s.Image().Filename)
}

func TestSelection_Describe(t *testing.T) {
	var s Selection
	s.SetFile(&models.Image{Filename: "me.jpg", ContentType: "image/jpeg", Data: make([]byte, 2000)})
	assert.Equal(t, "me.jpg (image/jpeg, 2.0 kB, from file)", s.Describe())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "none", FromNone.String())
	assert.Equal(t, "file", FromFile.String())
	assert.Equal(t, "camera", FromCamera.String())
}

package notify

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestMultiAndLog(t *testing.T) {
	var buf bytes.Buffer
	var got []string

	n := Multi{
		Log{Logger: zerolog.New(&buf)},
		nil,
		Func(func(title, description string) { got = append(got, title+": "+description) }),
	}
	n.Notify("Added to favorites", "The route has been added to your favorites.")

	assert.Equal(t, []string{"Added to favorites: The route has been added to your favorites."}, got)
	assert.Contains(t, buf.String(), `"title":"Added to favorites"`)

	Discard.Notify("ignored", "ignored")
}

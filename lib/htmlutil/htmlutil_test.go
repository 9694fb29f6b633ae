package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		"<html><body><div>hello <b>bold</b> world</div></body></html>",
	))
	require.NoError(t, err)
	require.Equal(t, "hello bold world", GetText(doc))
}

func TestGetTextNilNode(t *testing.T) {
	require.Equal(t, "", GetText(nil))
}

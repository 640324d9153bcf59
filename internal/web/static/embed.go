package static

import (
	_ "embed"
)

//go:embed index.html
var index []byte

// Index returns the review page.
func Index() []byte {
	return index
}

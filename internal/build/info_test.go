package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "dev (commit unknown, built unknown)", String())
}

func TestProduct(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "1.4.0"
	assert.Equal(t, "Smart Energy Kit Notifier/1.4.0", Product("Smart Energy Kit Notifier"))
}

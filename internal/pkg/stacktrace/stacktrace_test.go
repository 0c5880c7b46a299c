package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/emunotify/internal/notification/eventbus.(*Bus).deliver.func1()
	/app/internal/notification/eventbus/bus.go:118 +0x85
panic({0x1, 0x2})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/emunotify/internal/notification/usecase.(*Usecase).Handle(...)
	/app/internal/notification/usecase/dispatcher.go:42
`)

	assert.Equal(t, []string{
		"internal/notification/eventbus/bus.go:118",
		"internal/notification/usecase/dispatcher.go:42",
	}, InternalPaths(stack))

	assert.Empty(t, InternalPaths(nil))
}

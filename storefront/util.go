package storefront

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/golang/glog"
)

// Logging convention in the `storefront` package:
// Info:
//     essential events for abnormal behavior. This level should be silent on normal operation.
//     this includes:
//     - storage read/write failures (recovered as empty/unpersisted state)
//     - transport reconnects and discarded stale responses
// Error:
//     unrecoverable crash details
// Debug (V(2)):
//     key events for trace debugging - store mutations, composed queries, event dispatch

func HandleError(do func(), handlers ...any) (r any) {
	defer func() {
		if r = recover(); r != nil {
			glog.Warningf("Unexpected error: %s\n", ErrorJson(r, debug.Stack()))
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%s", r)
			}
			for _, handler := range handlers {
				switch v := handler.(type) {
				case func():
					v()
				case func(error):
					v(err)
				}
			}
		}
	}()
	do()
	return
}

func ErrorJson(err any, stack []byte) string {
	stackLines := []string{}
	for _, line := range strings.Split(string(stack), "\n") {
		stackLines = append(stackLines, strings.TrimSpace(line))
	}
	errorJson, _ := json.Marshal(map[string]any{
		"error": fmt.Sprintf("%T=%s", err, err),
		"stack": stackLines,
	})
	return string(errorJson)
}

type reconnect struct {
	timeout time.Duration
	start   time.Time
}

func newReconnect(timeout time.Duration) *reconnect {
	return &reconnect{
		timeout: timeout,
		start:   time.Now(),
	}
}

func (self *reconnect) After() <-chan time.Time {
	remaining := self.timeout - time.Now().Sub(self.start)
	return time.After(remaining)
}

package safe

import (
	"log/slog"
	"runtime/debug"
)

// Run 后台 goroutine 的统一入口，panic 不允许打穿进程
func Run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	fn()
}

//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

// main hands the process main thread to the hotkey event loop, which macOS
// requires for global key registration.
func main() {
	code := 0
	mainthread.Init(func() { code = run() })
	os.Exit(code)
}

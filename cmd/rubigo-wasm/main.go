//go:build js && wasm

// Command rubigo-wasm is the browser build of the engine. It installs
// the rubigo API object on globalThis and parks; the JS host drives
// everything from there.
package main

import (
	"log/slog"
	"syscall/js"

	"github.com/rubigo-ui/rubigo/internal/wasm"
)

func main() {
	rt := wasm.New(slog.Default())
	rt.Install(js.Global())
	select {}
}

package main

import (
	"fmt"
	"sync"
)

// consoleHost renders the engine's UI effects as console lines. One
// type implements every output interface the engine needs.
type consoleHost struct {
	mu      sync.Mutex
	popup   bool
	scrollY float64
}

func newConsoleHost() *consoleHost {
	return &consoleHost{}
}

func (h *consoleHost) popupShown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.popup
}

func (h *consoleHost) ShowPopup() {
	h.mu.Lock()
	h.popup = true
	h.mu.Unlock()
	fmt.Println("[popup] shown")
}

func (h *consoleHost) HidePopup() {
	h.mu.Lock()
	h.popup = false
	h.mu.Unlock()
	fmt.Println("[popup] hidden")
}

func (h *consoleHost) ShowFloating()     { fmt.Println("[floating] shown") }
func (h *consoleHost) HideFloating()     { fmt.Println("[floating] hidden") }
func (h *consoleHost) EnablePaneScroll() { fmt.Println("[popup] pane scroll enabled") }

func (h *consoleHost) ScrollPosition() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scrollY
}

func (h *consoleHost) LockScroll() { fmt.Println("[page] scroll locked") }

func (h *consoleHost) UnlockScroll(restoreTo float64) {
	fmt.Printf("[page] scroll unlocked, restored to %.0f\n", restoreTo)
}

func (h *consoleHost) Busy()  { fmt.Println("[checkout button] busy") }
func (h *consoleHost) Reset() { fmt.Println("[checkout button] reset") }

func (h *consoleHost) Redirect(checkoutURL string) {
	fmt.Printf("[navigate] %s\n", checkoutURL)
}

func (h *consoleHost) Toast(message string) {
	fmt.Printf("[toast] %s\n", message)
}

func (h *consoleHost) ReplaceURL(cleanURL string) {
	fmt.Printf("[history] url replaced: %s\n", cleanURL)
}

package workflow

import "strings"

const defaultSummary = `
Smart home setup complete!

Next steps:
  1. Start the hub server:
       cd smart-home-auth-server && mix phx.server
  2. Build and burn the firmware for your device:
       cd smart-home-firmware && mix firmware && mix burn
  3. Use the development token printed above to pair devices with the hub.

Run "homectl gen-token" for a fresh token, or "homectl clean" to remove
everything this install created.
`

func (w *Workflow) summary() string {
	text := w.cfg.Summary
	if strings.TrimSpace(text) == "" {
		text = defaultSummary
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text
}

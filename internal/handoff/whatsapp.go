// Package handoff turns a cart into something outside the storefront can act
// on: a chat deep link with the order text, and an optional notification
// event for the kitchen.
package handoff

import (
	"net/url"
	"strings"
)

const (
	DefaultNumber = "2348000000000"
	whatsAppBase  = "https://wa.me/"
)

// url.QueryEscape escapes a few characters browsers leave alone and writes
// spaces as '+'; undo that so links match what the web client produced.
var componentFixups = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent percent-encodes s as a single URI component.
func EscapeComponent(s string) string {
	return componentFixups.Replace(url.QueryEscape(s))
}

// WhatsAppLink builds a click-to-chat link with text prefilled.
// number is digits only, international format without '+'.
func WhatsAppLink(number, text string) string {
	if number == "" {
		number = DefaultNumber
	}
	return whatsAppBase + number + "?text=" + EscapeComponent(text)
}

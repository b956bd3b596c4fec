package main

import (
	"fmt"
	"io"

	"github.com/fjod/sweet-trails/internal/session"
)

func printKeys(w io.Writer) error {
	auth, enc, err := session.GenerateKeys()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "APP_AUTH_KEY=%s\nAPP_ENC_KEY=%s\n", auth, enc)
	return err
}

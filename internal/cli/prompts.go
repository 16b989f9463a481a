package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

func promptConfirm(message string) (bool, error) {
	var confirm bool

	err := huh.NewConfirm().
		Title(message).
		Value(&confirm).
		Affirmative("Yes").
		Negative("No").
		Run()

	return confirm, err
}

func promptPassword(message string) (string, error) {
	var password string

	err := huh.NewInput().
		Title(message).
		EchoMode(huh.EchoModePassword).
		Validate(func(s string) error {
			if s == "" {
				return fmt.Errorf("password is required")
			}
			return nil
		}).
		Value(&password).
		Run()

	return password, err
}

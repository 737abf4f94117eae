package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cppla/evsign/utils"
)

type HashPasswordCmd struct{}

// Run reads the password from the environment so it never lands in shell history.
func (h *HashPasswordCmd) Run(ctx *Context) error {
	pw := os.Getenv("ADMIN_PASSWORD")
	if pw == "" {
		return errors.New("ADMIN_PASSWORD is not set")
	}
	hash, err := utils.HashPassword(pw)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

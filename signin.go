package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/cppla/evsign/models"
)

type SigninCmd struct {
	ID uint `arg:"" help:"Token record id."`
}

// Run checks in one record and stores the result without moving its schedule.
func (s *SigninCmd) Run(ctx *Context) error {
	a, err := newApp(ctx.Config)
	if err != nil {
		return err
	}
	defer a.close()

	bg := context.Background()
	t, err := a.repo.FindByID(bg, s.ID)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(bg, ctx.Config.SchedulerCallTimeout())
	outcome, callErr := a.client.SignIn(callCtx, t.Token, t.AccountName)
	cancel()
	if callErr != nil {
		outcome = models.FailureOutcome(callErr)
	}
	if err := a.repo.UpdateResult(bg, t.ID, time.Now(), outcome); err != nil {
		return err
	}
	if callErr != nil {
		return callErr
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}

package model

import "errors"

var (
	// ErrNotFound marks a missing record in any store.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken marks a registration attempt with an already used email.
	ErrEmailTaken = errors.New("user already exists with this email")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// callers cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrPasswordless marks a password login against a Google-only account.
	ErrPasswordless = errors.New("this account was created with Google, use Google sign-in")
)

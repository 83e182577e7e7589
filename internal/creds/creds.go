// Copyright 2016 Infinidat
// Licensed under the Apache License, Version 2.0, see LICENCE file for details.

// Package creds resolves the credentials used to authenticate against
// an array. Resolution happens once, up front; nothing deeper in the
// stack reads the environment.
package creds

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/ini.v1"
)

const (
	// UserEnv and PasswordEnv name the environment variable pair
	// consulted when no explicit credentials are given.
	UserEnv     = "INFINIBOX_USER"
	PasswordEnv = "INFINIBOX_PASSWORD"

	credentialsSection = "infinibox"
)

// Credentials authenticate one user against one array.
type Credentials struct {
	Username string
	Password string
}

// Resolve returns the credentials to use, in order of preference:
// the explicit username/password arguments, the INFINIBOX_USER and
// INFINIBOX_PASSWORD environment pair, then the infinisdk credentials
// file ~/.infinidat/infinisdk.ini. With none available an unauthorized
// error is returned and no array operation should be attempted.
func Resolve(username, password string) (Credentials, error) {
	if username != "" && password != "" {
		return Credentials{Username: username, Password: password}, nil
	}
	if user, pass := os.Getenv(UserEnv), os.Getenv(PasswordEnv); user != "" && pass != "" {
		return Credentials{Username: user, Password: pass}, nil
	}
	if creds, err := fromFile(); err == nil {
		return creds, nil
	} else if !errors.IsNotFound(err) {
		return Credentials{}, errors.Trace(err)
	}
	return Credentials{}, errors.Unauthorizedf(
		"no infinibox credentials: pass user and password, set %s and %s, or provide %s",
		UserEnv, PasswordEnv, "~/.infinidat/infinisdk.ini")
}

// CredentialsFilePath returns the location of the infinisdk-compatible
// credentials file.
func CredentialsFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Trace(err)
	}
	return filepath.Join(home, ".infinidat", "infinisdk.ini"), nil
}

func fromFile() (Credentials, error) {
	path, err := CredentialsFilePath()
	if err != nil {
		return Credentials{}, errors.Trace(err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Credentials{}, errors.NotFoundf("credentials file %q", path)
	}
	file, err := ini.Load(path)
	if err != nil {
		return Credentials{}, errors.Annotatef(err, "reading credentials file %q", path)
	}
	section := file.Section(credentialsSection)
	creds := Credentials{
		Username: section.Key("username").String(),
		Password: section.Key("password").String(),
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, errors.NotFoundf("credentials in %q", path)
	}
	return creds, nil
}

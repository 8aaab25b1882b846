//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race builds hash roughly ten times slower, so stay at the library default
const defaultHashCost = bcrypt.DefaultCost

//go:build !race

package auth

// defaultHashCost is the bcrypt cost used when BcryptHasher.Cost is zero.
const defaultHashCost = 12

package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const characters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID returns a short id used to correlate upload batches in logs and
// results.
func GenerateID() (string, error) {
	return gonanoid.Generate(characters, 6)
}

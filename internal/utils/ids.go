package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func GenerateNanoId(length int) string {
	id, err := gonanoid.Generate(nanoidAlphabet, length)
	if err != nil {
		panic(err)
	}
	return id
}

func GenerateNanoIdWithPrefix(prefix string, length int) string {
	return fmt.Sprintf("%s_%s", prefix, GenerateNanoId(length))
}

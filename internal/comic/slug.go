package comic

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var slugAdjectives = []string{
	"amber", "bold", "brave", "bright", "cosmic", "crimson", "curious",
	"daring", "dreamy", "electric", "fearless", "gentle", "golden",
	"hidden", "lunar", "mighty", "midnight", "neon", "quiet", "restless",
	"scarlet", "secret", "silent", "silver", "stormy", "swift", "tiny",
	"velvet", "wandering", "wild",
}

var slugNouns = []string{
	"badger", "comet", "dragon", "falcon", "fox", "galaxy", "harbor",
	"knight", "lantern", "meadow", "nebula", "otter", "panther", "pirate",
	"raven", "river", "robot", "rocket", "samurai", "shadow", "sparrow",
	"tiger", "voyager", "wizard", "wolf",
}

var slugSuffixes = []string{
	"adventures", "chronicle", "diaries", "journey", "legend", "odyssey",
	"saga", "story", "tales", "quest",
}

// GenerateSlug produces one human-readable slug candidate, e.g.
// "silent-otter-saga". Pure: uniqueness is the caller's concern.
func GenerateSlug() string {
	return strings.Join([]string{
		slugAdjectives[rand.Intn(len(slugAdjectives))],
		slugNouns[rand.Intn(len(slugNouns))],
		slugSuffixes[rand.Intn(len(slugSuffixes))],
	}, "-")
}

const maxSlugAttempts = 10

// UniqueSlug draws fresh candidates until one passes the exists check, up
// to maxSlugAttempts. On exhaustion it falls back to a timestamp plus
// random suffix, which cannot realistically collide.
func UniqueSlug(exists func(slug string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug := GenerateSlug()
		taken, err := exists(slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return fmt.Sprintf("story-%d-%s", time.Now().UnixMilli(), randomBase36(5)), nil
}

func randomBase36(n int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

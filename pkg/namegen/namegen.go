// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package namegen produces random human-friendly display names.

New accounts that sign up with only an email address still need something to
show in the UI, so we assign a three-word name in the form
"color adjective animal" (e.g. "crimson patient otter").

The word lists are embedded and intentionally small: uniqueness is NOT a goal
here (emails are the unique handle), readability is.
*/
package namegen

import (
	"math/rand/v2"
	"strings"
)

// # Word Lists

var colors = []string{
	"amber", "azure", "beige", "bronze", "cobalt", "coral", "crimson",
	"emerald", "golden", "indigo", "ivory", "jade", "lilac", "maroon",
	"ochre", "olive", "pearl", "russet", "scarlet", "silver", "teal",
	"umber", "violet",
}

var adjectives = []string{
	"amused", "bold", "brave", "calm", "clever", "curious", "eager",
	"gentle", "honest", "jolly", "keen", "lively", "merry", "nimble",
	"patient", "proud", "quiet", "silly", "steady", "swift", "tender",
	"vivid", "witty",
}

var animals = []string{
	"badger", "bison", "crane", "falcon", "ferret", "gecko", "heron",
	"ibex", "jackal", "koala", "lynx", "marmot", "newt", "otter",
	"panther", "quail", "raven", "seal", "stoat", "tapir", "walrus",
	"wombat", "yak",
}

// # Generators

// Random returns a random "color adjective animal" display name.
//
// math/rand is sufficient here: display names carry no security weight.
func Random() string {
	parts := []string{
		colors[rand.IntN(len(colors))],
		adjectives[rand.IntN(len(adjectives))],
		animals[rand.IntN(len(animals))],
	}
	return strings.Join(parts, " ")
}

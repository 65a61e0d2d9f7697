// Package xp holds the pure leveling math. No I/O, no state: every
// level-related value is derived from a cumulative XP total so that the
// stored level can always be recomputed and checked.
package xp

// XPPerLevel is the width of a single level band.
const XPPerLevel = 1000

// Level maps cumulative XP to a level, starting at 1.
func Level(totalXP int) int {
	return totalXP/XPPerLevel + 1
}

// IntoLevel returns the XP earned within the current level band.
func IntoLevel(totalXP int) int {
	return totalXP % XPPerLevel
}

// ToNextLevel returns the XP still needed to reach the next level.
func ToNextLevel(totalXP int) int {
	return XPPerLevel - IntoLevel(totalXP)
}

// ProgressPercent returns progress through the current level as 0-100.
func ProgressPercent(totalXP int) float64 {
	return float64(IntoLevel(totalXP)) / XPPerLevel * 100
}

// LeveledUp reports whether moving from oldXP to newXP crossed a level
// boundary.
func LeveledUp(oldXP, newXP int) bool {
	return Level(newXP) > Level(oldXP)
}

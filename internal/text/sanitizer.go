// Package text contains text transformations applied to subtitle fragments
// before they are indexed.
package text

import "regexp"

// soundDescriptionPattern matches sound and music descriptions such as
// "[intense music]", "(noises)", "♫ smooth jazz ♫", "♪ lively music ♪"
// and "*Outro Music*". Matching is non-greedy; the first match wins per scan.
var soundDescriptionPattern = regexp.MustCompile(`\[.*?\]|\(.*?\)|♫.*?♫|♪.*?♪|\*.*?\*`)

// Filler is the non-searchable character used to mask sound descriptions.
const Filler = '_'

// MaskSoundDescriptions replaces every byte inside a sound-description span
// with the filler character. The text is not shortened: downstream
// highlighting is computed from character offsets, and removing characters
// would desynchronize them. The result always has the same length as the
// input, and applying the transformation twice yields the same result as
// applying it once.
func MaskSoundDescriptions(s string) string {
	matches := soundDescriptionPattern.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	masked := []byte(s)
	for _, match := range matches {
		for i := match[0]; i < match[1]; i++ {
			masked[i] = Filler
		}
	}
	return string(masked)
}

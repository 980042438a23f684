package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"empack/internal/primitives"
)

func TestCalculateConfidence_ExactTitleMatch(t *testing.T) {
	m := CalculateConfidence("Citadel", "Citadel", "citadel", 50_000_000, 50_000_000)
	assert.InDelta(t, 1.0, m.StringSimilarity, 0.0001)
	assert.InDelta(t, 1.0, m.DownloadConfidence, 0.0001)
	assert.InDelta(t, 1.0, m.Score, 0.0001)
}

func TestCalculateConfidence_SlugBeatsTitle(t *testing.T) {
	// title is a poor match but slug matches exactly; the max of the two
	// similarities should win.
	m := CalculateConfidence("citadel", "Citadel: The Ultimate Edition", "citadel", 1000, 50_000_000)
	assert.InDelta(t, 1.0, m.StringSimilarity, 0.0001)
}

func TestCalculateConfidence_MonotonicInDownloads(t *testing.T) {
	low := CalculateConfidence("jei", "Just Enough Items", "jei", 100, 50_000_000)
	high := CalculateConfidence("jei", "Just Enough Items", "jei", 40_000_000, 50_000_000)
	assert.Greater(t, high.Score, low.Score)
}

func TestCalculateConfidence_ZeroDownloadsNoConfidence(t *testing.T) {
	m := CalculateConfidence("jei", "Just Enough Items", "jei", 0, 50_000_000)
	assert.Equal(t, 0.0, m.DownloadConfidence)
}

func TestHasExtraWords_RejectsAscendedVariant(t *testing.T) {
	assert.True(t, HasExtraWords("Apotheosis", "Apotheosis Ascended"))
}

func TestHasExtraWords_AcceptsAcronymExpansion(t *testing.T) {
	// "Just Enough Items" has more words than "JEI" but none of them share
	// a substring relationship with the single query word, so this is not
	// an extra-words case — the caller relies on string similarity instead.
	assert.False(t, HasExtraWords("JEI", "Just Enough Items"))
}

func TestHasExtraWords_SameWordCountIsNeverExtra(t *testing.T) {
	assert.False(t, HasExtraWords("Applied Energistics", "Applied Energistics"))
}

func TestHasExtraWords_FewerWordsIsNeverExtra(t *testing.T) {
	assert.False(t, HasExtraWords("Applied Energistics 2", "Applied"))
}

func TestMeetsThreshold_Modrinth(t *testing.T) {
	assert.True(t, MeetsThreshold(0.90, primitives.Modrinth))
	assert.False(t, MeetsThreshold(0.899, primitives.Modrinth))
}

func TestMeetsThreshold_CurseForge(t *testing.T) {
	assert.True(t, MeetsThreshold(0.85, primitives.CurseForge))
	assert.False(t, MeetsThreshold(0.849, primitives.CurseForge))
}

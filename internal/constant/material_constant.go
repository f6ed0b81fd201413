package constant

// Document categories. question_pool material is never re-chunked: past
// exam items lose their meaning when split mid-question.
const (
	CategoryTextbook     = "textbook"
	CategoryQuestionPool = "question_pool"
	CategoryRegulation   = "regulation"
)

// Categories lists every valid document category.
var Categories = []string{CategoryTextbook, CategoryQuestionPool, CategoryRegulation}

// IsValidCategory reports whether c is one of the known categories.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Source-material indexing statuses.
const (
	MaterialStatusPending = "PENDING"
	MaterialStatusIndexed = "INDEXED"
	MaterialStatusFailed  = "FAILED"
)

// Complexity tags attached to chunks from lexical cues.
const (
	ComplexityBasic        = "basic"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
)

// Question difficulty tiers.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Difficulties lists every valid question difficulty.
var Difficulties = []string{DifficultyEasy, DifficultyMedium, DifficultyHard}

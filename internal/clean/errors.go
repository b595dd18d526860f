package clean

import "fmt"

// VocabularyError reports a categorical value outside its closed vocabulary
// when strict label handling is enabled.
type VocabularyError struct {
	Column string
	Value  string
	Row    int // 1-based data row, header excluded
}

func (e *VocabularyError) Error() string {
	return fmt.Sprintf("column %q row %d: value %q is outside the label vocabulary", e.Column, e.Row, e.Value)
}

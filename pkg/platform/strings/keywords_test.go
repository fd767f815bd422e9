package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywords(t *testing.T) {
	assert.Nil(t, Keywords(nil))
	assert.Empty(t, Keywords([]string{" ", ""}))
	assert.Equal(t, []string{"law", "Europe"}, Keywords([]string{" law ", "law", "Europe", "europe"}))
	assert.Equal(t, []string{"machine learning"}, Keywords([]string{"machine   learning", "Machine Learning "}))
}

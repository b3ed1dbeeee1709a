package pattern

import (
	"testing"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_Categorize(t *testing.T) {
	m, err := NewMatcher(DefaultRules())
	require.NoError(t, err)

	tests := []struct {
		title string
		want  model.Category
	}{
		{"STARBUCKS STORE #1234", model.CategoryFood},
		{"Whole Foods Market", model.CategoryFood},
		{"UBER *TRIP", model.CategoryTransport},
		{"Uber Eats order", model.CategoryFood},
		{"NETFLIX.COM", model.CategorySubscriptions},
		{"CHECK #1234", model.CategoryOther},
		{"", model.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Categorize(model.Transaction{Title: tt.title}))
		})
	}
}

func TestMatcher_PriorityAndPlainPatterns(t *testing.T) {
	m, err := NewMatcher([]Rule{
		{Name: "generic", MerchantPattern: "store", Category: model.CategoryShopping},
		{Name: "specific", MerchantPattern: "book store", Category: model.CategoryEducation, Priority: 5},
	})
	require.NoError(t, err)

	rule, ok := m.Match(model.Transaction{Title: "Campus BOOK STORE"})
	require.True(t, ok)
	assert.Equal(t, "specific", rule.Name)

	rule, ok = m.Match(model.Transaction{Title: "Corner store"})
	require.True(t, ok)
	assert.Equal(t, "generic", rule.Name)
}

func TestNewMatcher_RejectsBadRules(t *testing.T) {
	_, err := NewMatcher([]Rule{{Name: "bad regex", MerchantPattern: "(", IsRegex: true, Category: model.CategoryFood}})
	assert.Error(t, err)

	_, err = NewMatcher([]Rule{{Name: "bad category", MerchantPattern: "x", Category: "groceries"}})
	assert.Error(t, err)

	_, err = NewMatcher([]Rule{{Name: "empty", Category: model.CategoryFood}})
	assert.Error(t, err)
}

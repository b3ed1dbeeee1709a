// Package pattern assigns categories to imported transactions using merchant rules.
package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/spicewatch/internal/model"
)

// Rule maps a merchant pattern to a category. Plain patterns match when the
// lowercased title contains them; regex patterns are matched against the
// lowercased title as well.
type Rule struct {
	Name            string         `mapstructure:"name"`
	MerchantPattern string         `mapstructure:"pattern"`
	Category        model.Category `mapstructure:"category"`
	Priority        int            `mapstructure:"priority"`
	IsRegex         bool           `mapstructure:"regex"`
}

// Matcher evaluates transactions against category rules.
type Matcher struct {
	compiledRegex map[int]*regexp.Regexp
	rules         []Rule
}

// NewMatcher validates and compiles rules. Higher priority rules are tried
// first; ties keep their configured order.
func NewMatcher(rules []Rule) (*Matcher, error) {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	m := &Matcher{
		rules:         sorted,
		compiledRegex: make(map[int]*regexp.Regexp),
	}
	for i, rule := range sorted {
		if strings.TrimSpace(rule.MerchantPattern) == "" {
			return nil, fmt.Errorf("rule %q: empty pattern", rule.Name)
		}
		if !rule.Category.IsValid() {
			return nil, fmt.Errorf("rule %q: unknown category %q", rule.Name, rule.Category)
		}
		if rule.IsRegex {
			re, err := regexp.Compile(rule.MerchantPattern)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
			}
			m.compiledRegex[i] = re
		}
	}
	return m, nil
}

// Match returns the first rule matching the transaction, if any.
func (m *Matcher) Match(txn model.Transaction) (Rule, bool) {
	title := strings.ToLower(strings.TrimSpace(txn.Title))
	if title == "" {
		return Rule{}, false
	}
	for i, rule := range m.rules {
		if re, ok := m.compiledRegex[i]; ok {
			if re.MatchString(title) {
				return rule, true
			}
			continue
		}
		if strings.Contains(title, strings.ToLower(rule.MerchantPattern)) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Categorize returns the category of the first matching rule, or the
// catch-all category when nothing matches.
func (m *Matcher) Categorize(txn model.Transaction) model.Category {
	if rule, ok := m.Match(txn); ok {
		return rule.Category
	}
	return model.CategoryOther
}

// DefaultRules covers common merchants so a fresh import is not all "other".
func DefaultRules() []Rule {
	return []Rule{
		{Name: "subscriptions", MerchantPattern: `netflix|spotify|hulu|disney\+|apple\.com/bill|youtube premium|patreon`, Category: model.CategorySubscriptions, Priority: 20, IsRegex: true},
		{Name: "rideshare", MerchantPattern: `\b(uber|lyft)\b`, Category: model.CategoryTransport, Priority: 15, IsRegex: true},
		{Name: "food delivery", MerchantPattern: `doordash|grubhub|uber eats|deliveroo`, Category: model.CategoryFood, Priority: 16, IsRegex: true},
		{Name: "groceries", MerchantPattern: `whole foods|trader joe|safeway|kroger|aldi|market`, Category: model.CategoryFood, Priority: 10, IsRegex: true},
		{Name: "coffee", MerchantPattern: `starbucks|coffee|cafe`, Category: model.CategoryFood, Priority: 10, IsRegex: true},
		{Name: "fuel", MerchantPattern: `shell|chevron|exxon|\bbp\b|fuel`, Category: model.CategoryTransport, Priority: 10, IsRegex: true},
		{Name: "transit", MerchantPattern: `metro|transit|parking|airlines?|amtrak`, Category: model.CategoryTransport, Priority: 5, IsRegex: true},
		{Name: "travel", MerchantPattern: `hotel|airbnb|booking\.com|expedia`, Category: model.CategoryTravel, Priority: 10, IsRegex: true},
		{Name: "utilities", MerchantPattern: `electric|water|gas co|comcast|verizon|at&t|t-mobile`, Category: model.CategoryUtilities, Priority: 10, IsRegex: true},
		{Name: "housing", MerchantPattern: `rent|mortgage|hoa`, Category: model.CategoryHousing, Priority: 8, IsRegex: true},
		{Name: "health", MerchantPattern: `pharmacy|cvs|walgreens|clinic|dental|gym`, Category: model.CategoryHealth, Priority: 10, IsRegex: true},
		{Name: "shopping", MerchantPattern: `amazon|target|walmart|best buy|ikea`, Category: model.CategoryShopping, Priority: 8, IsRegex: true},
		{Name: "entertainment", MerchantPattern: `cinema|theater|steam|ticketmaster|bar\b`, Category: model.CategoryEntertainment, Priority: 8, IsRegex: true},
		{Name: "education", MerchantPattern: `tuition|udemy|coursera|bookstore`, Category: model.CategoryEducation, Priority: 8, IsRegex: true},
	}
}

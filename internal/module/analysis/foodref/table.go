package foodref

import "strings"

// Entry holds macro values for one canonical food label, per 100 g reference
// serving.
type Entry struct {
	Label    string
	Calories float64
	Protein  float64
	Carbs    float64
	Fats     float64
}

// Table is a read-only lookup from canonical food label to reference macros.
type Table struct {
	entries map[string]Entry
}

// New builds a table from the given entries. Labels are matched
// case-insensitively.
func New(entries []Entry) *Table {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[strings.ToLower(e.Label)] = e
	}
	return &Table{entries: m}
}

// Default returns the built-in reference table.
func Default() *Table {
	return New(defaultEntries)
}

// Lookup returns the entry for a label, if present.
func (t *Table) Lookup(label string) (Entry, bool) {
	e, ok := t.entries[strings.ToLower(strings.TrimSpace(label))]
	return e, ok
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

var defaultEntries = []Entry{
	{Label: "pizza", Calories: 266, Protein: 11, Carbs: 33, Fats: 10},
	{Label: "salad", Calories: 33, Protein: 2.5, Carbs: 6, Fats: 0.5},
	{Label: "burger", Calories: 295, Protein: 17, Carbs: 24, Fats: 14},
	{Label: "hamburger", Calories: 295, Protein: 17, Carbs: 24, Fats: 14},
	{Label: "pasta", Calories: 157, Protein: 5.8, Carbs: 31, Fats: 0.9},
	{Label: "rice", Calories: 130, Protein: 2.7, Carbs: 28, Fats: 0.3},
	{Label: "chicken", Calories: 239, Protein: 27, Carbs: 0, Fats: 14},
	{Label: "fish", Calories: 206, Protein: 22, Carbs: 0, Fats: 12},
	{Label: "salmon", Calories: 208, Protein: 20, Carbs: 0, Fats: 13},
	{Label: "steak", Calories: 271, Protein: 25, Carbs: 0, Fats: 19},
	{Label: "beef", Calories: 250, Protein: 26, Carbs: 0, Fats: 15},
	{Label: "egg", Calories: 155, Protein: 13, Carbs: 1.1, Fats: 11},
	{Label: "eggs", Calories: 155, Protein: 13, Carbs: 1.1, Fats: 11},
	{Label: "omelette", Calories: 154, Protein: 11, Carbs: 0.6, Fats: 12},
	{Label: "bread", Calories: 265, Protein: 9, Carbs: 49, Fats: 3.2},
	{Label: "sandwich", Calories: 250, Protein: 12, Carbs: 29, Fats: 9},
	{Label: "soup", Calories: 56, Protein: 3, Carbs: 8, Fats: 1.5},
	{Label: "taco", Calories: 226, Protein: 9, Carbs: 20, Fats: 12},
	{Label: "burrito", Calories: 206, Protein: 8, Carbs: 26, Fats: 8},
	{Label: "sushi", Calories: 143, Protein: 6, Carbs: 21, Fats: 3.6},
	{Label: "fries", Calories: 312, Protein: 3.4, Carbs: 41, Fats: 15},
	{Label: "french fries", Calories: 312, Protein: 3.4, Carbs: 41, Fats: 15},
	{Label: "potato", Calories: 77, Protein: 2, Carbs: 17, Fats: 0.1},
	{Label: "pancake", Calories: 227, Protein: 6, Carbs: 28, Fats: 10},
	{Label: "cereal", Calories: 379, Protein: 8, Carbs: 84, Fats: 1.5},
	{Label: "yogurt", Calories: 59, Protein: 10, Carbs: 3.6, Fats: 0.4},
	{Label: "cheese", Calories: 402, Protein: 25, Carbs: 1.3, Fats: 33},
	{Label: "apple", Calories: 52, Protein: 0.3, Carbs: 14, Fats: 0.2},
	{Label: "banana", Calories: 89, Protein: 1.1, Carbs: 23, Fats: 0.3},
	{Label: "fruit", Calories: 60, Protein: 0.8, Carbs: 15, Fats: 0.3},
	{Label: "cake", Calories: 347, Protein: 5, Carbs: 53, Fats: 13},
	{Label: "ice cream", Calories: 207, Protein: 3.5, Carbs: 24, Fats: 11},
	{Label: "beans", Calories: 127, Protein: 8.7, Carbs: 22, Fats: 0.5},
	{Label: "avocado", Calories: 160, Protein: 2, Carbs: 8.5, Fats: 15},
	{Label: "noodles", Calories: 138, Protein: 4.5, Carbs: 25, Fats: 2.1},
}

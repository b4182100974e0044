package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedReply = `Detected Ingredients:
- Egg
- Tofu

Recipe 1: Mapo Tofu
Cooking Style: Braised
Instructions: Cook it well.

Recipe 2: Egg Drop Soup
Cooking Style: Soup
Instructions: Boil the stock.
Swirl in the beaten egg.

Recipe 3: Tofu Stir-Fry
Cooking Style: Stir-fry
Instructions: Fry the tofu over high heat.`

func TestParse_NoIngredientsDetected(t *testing.T) {
	replies := []string{
		"No food ingredients detected.",
		"NO FOOD INGREDIENTS DETECTED",
		"I'm sorry. no Food Ingredients Detected in this picture.\nRecipe 1: Ghost Dish",
	}
	for _, reply := range replies {
		t.Run(reply, func(t *testing.T) {
			result := Parse(reply)
			assert.Empty(t, result.Ingredients)
			assert.Empty(t, result.Recipes)
			assert.Equal(t, NoIngredientsMessage, result.Error)
			assert.True(t, result.Failed())
		})
	}
}

func TestParse_WellFormed(t *testing.T) {
	result := Parse(wellFormedReply)

	assert.False(t, result.Failed())
	assert.Equal(t, []string{"Egg", "Tofu"}, result.Ingredients)
	require.Len(t, result.Recipes, 3)

	assert.Equal(t, Recipe{ID: 1, Name: "Mapo Tofu", Style: "Braised", Instructions: "Cook it well."}, result.Recipes[0])
	assert.Equal(t, "Egg Drop Soup", result.Recipes[1].Name)
	assert.Equal(t, "Boil the stock. Swirl in the beaten egg.", result.Recipes[1].Instructions)
	assert.Equal(t, "Stir-fry", result.Recipes[2].Style)
}

func TestParse_IDsAreContiguous(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  int
	}{
		{"no recipes", "Detected Ingredients:\n- Rice", 0},
		{"one recipe", "Recipe 1: Fried Rice\nInstructions: Fry.", 1},
		{"three recipes", wellFormedReply, 3},
		{"empty block skipped", "Recipe 1: Fried Rice\nRecipe 2:   \n\nRecipe 3: Congee", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.reply)
			require.Len(t, result.Recipes, tt.want)
			for i, r := range result.Recipes {
				assert.Equal(t, i+1, r.ID)
			}
		})
	}
}

func TestParse_DefaultStyle(t *testing.T) {
	result := Parse("Recipe 1: Steamed Fish\nInstructions: Steam for ten minutes.")
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, DefaultStyle, result.Recipes[0].Style)
	assert.Equal(t, "Steam for ten minutes.", result.Recipes[0].Instructions)
}

func TestParse_MissingInstructions(t *testing.T) {
	result := Parse("Recipe 1: Red Braised Pork\nCooking Style: Braised")
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, "Red Braised Pork", result.Recipes[0].Name)
	assert.Equal(t, "", result.Recipes[0].Instructions)
}

func TestParse_IngredientsWithoutRecipes(t *testing.T) {
	result := Parse("Detected Ingredients:\n  - Bok choy  \n\n- Garlic\n")
	assert.Equal(t, []string{"Bok choy", "Garlic"}, result.Ingredients)
	assert.Empty(t, result.Recipes)
}

func TestParse_MissingIngredientsHeader(t *testing.T) {
	result := Parse("Recipe 1: Kung Pao Chicken\nCooking Style: Stir-fry\nInstructions: Toss with peanuts.")
	assert.Empty(t, result.Ingredients)
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, "Toss with peanuts.", result.Recipes[0].Instructions)
}

func TestParse_CaseInsensitiveMarkersAndCRLF(t *testing.T) {
	reply := "detected ingredients:\r\n- Pork\r\nRECIPE 1: Twice Cooked Pork\r\ncooking style: Stir-fry\r\nINSTRUCTIONS: Boil, then fry.\r\n"
	result := Parse(reply)

	assert.Equal(t, []string{"Pork"}, result.Ingredients)
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, "Twice Cooked Pork", result.Recipes[0].Name)
	assert.Equal(t, "Stir-fry", result.Recipes[0].Style)
	assert.Equal(t, "Boil, then fry.", result.Recipes[0].Instructions)
}

func TestParse_MarkdownEmphasis(t *testing.T) {
	reply := "**Detected Ingredients:**\n* Scallion\n- **Ginger**\n\n**Recipe 1: Scallion Pancake**\n**Cooking Style:** Pan-fried\n**Instructions:** Roll the dough.\nFry until golden."
	result := Parse(reply)

	assert.Equal(t, []string{"Scallion", "Ginger"}, result.Ingredients)
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, "Scallion Pancake", result.Recipes[0].Name)
	assert.Equal(t, "Pan-fried", result.Recipes[0].Style)
	assert.Equal(t, "Roll the dough. Fry until golden.", result.Recipes[0].Instructions)
}

func TestParse_EmptyStyleFallsBack(t *testing.T) {
	result := Parse("Recipe 1: Plain Congee\nCooking Style:   \nInstructions: Simmer rice.")
	require.Len(t, result.Recipes, 1)
	assert.Equal(t, DefaultStyle, result.Recipes[0].Style)
}

func TestParse_TrustsSplitOrder(t *testing.T) {
	result := Parse("Recipe 3: Last\nRecipe 1: First")
	require.Len(t, result.Recipes, 2)
	assert.Equal(t, "Last", result.Recipes[0].Name)
	assert.Equal(t, 1, result.Recipes[0].ID)
	assert.Equal(t, "First", result.Recipes[1].Name)
}

func TestDedupeSources(t *testing.T) {
	in := []Source{
		{URI: "https://example.com/mapo", Title: "Mapo Tofu"},
		{URI: "https://example.com/mapo", Title: "Duplicate"},
		{URI: "  "},
		{URI: "https://recipes.test/congee"},
	}
	got := DedupeSources(in)
	assert.Equal(t, []Source{
		{URI: "https://example.com/mapo", Title: "Mapo Tofu"},
		{URI: "https://recipes.test/congee", Title: "recipes.test"},
	}, got)
	assert.Nil(t, DedupeSources(nil))
}

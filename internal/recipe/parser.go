package recipe

import (
	"regexp"
	"strings"
)

// DefaultStyle is used when a recipe block names no cooking style.
const DefaultStyle = "Traditional"

// NoIngredientsMessage is shown when the model found nothing edible in the photo.
const NoIngredientsMessage = "No clear food ingredients were detected in this image. Please try a different photo!"

const noIngredientsSentinel = "no food ingredients detected"

var (
	ingredientsRe = regexp.MustCompile(`(?is)detected ingredients:(.*?)(?:recipe 1:|$)`)
	recipeSplitRe = regexp.MustCompile(`(?i)recipe \d:`)
)

// Parse turns the model's free-text reply into an AnalysisResult.
//
// The reply is expected to follow the layout requested by the analysis prompt:
// a "Detected Ingredients:" bullet list followed by "Recipe N:" blocks, each
// with a name line, a "Cooking Style:" line and an "Instructions:" section.
// Anything that does not fit is dropped rather than reported as an error.
func Parse(text string) *AnalysisResult {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	if strings.Contains(strings.ToLower(text), noIngredientsSentinel) {
		return &AnalysisResult{
			Ingredients: []string{},
			Recipes:     []Recipe{},
			Error:       NoIngredientsMessage,
		}
	}

	result := &AnalysisResult{
		Ingredients: parseIngredients(text),
		Recipes:     []Recipe{},
	}

	blocks := recipeSplitRe.Split(text, -1)
	for _, block := range blocks[1:] {
		r, ok := parseRecipeBlock(block)
		if !ok {
			continue
		}
		r.ID = len(result.Recipes) + 1
		result.Recipes = append(result.Recipes, r)
	}

	return result
}

func parseIngredients(text string) []string {
	ingredients := []string{}

	m := ingredientsRe.FindStringSubmatch(text)
	if m == nil {
		return ingredients
	}

	for _, line := range strings.Split(m[1], "\n") {
		item := stripBullet(strings.TrimSpace(line))
		item = trimMarkup(item)
		if item == "" {
			continue
		}
		ingredients = append(ingredients, item)
	}
	return ingredients
}

func stripBullet(line string) string {
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(strings.TrimPrefix(line, bullet))
		}
	}
	return line
}

// parseRecipeBlock returns false for blocks with no usable name line.
func parseRecipeBlock(block string) (Recipe, bool) {
	lines := strings.Split(strings.TrimSpace(block), "\n")

	var r Recipe
	for _, line := range lines {
		if name := trimMarkup(line); name != "" {
			r.Name = name
			break
		}
	}
	if r.Name == "" {
		return Recipe{}, false
	}

	r.Style = DefaultStyle
	for _, line := range lines {
		if !strings.Contains(strings.ToLower(line), "cooking style:") {
			continue
		}
		if style := trimMarkup(afterColon(line)); style != "" {
			r.Style = style
		}
		break
	}

	for i, line := range lines {
		head := strings.TrimLeft(line, " \t*#")
		if !strings.HasPrefix(strings.ToLower(head), "instructions:") {
			continue
		}
		parts := []string{strings.TrimLeft(afterColon(head), " \t*")}
		for _, rest := range lines[i+1:] {
			if rest = strings.TrimSpace(rest); rest != "" {
				parts = append(parts, rest)
			}
		}
		r.Instructions = strings.TrimSpace(strings.Join(parts, " "))
		break
	}

	return r, true
}

func afterColon(line string) string {
	_, rest, _ := strings.Cut(line, ":")
	return rest
}

// trimMarkup removes whitespace and markdown emphasis around s.
func trimMarkup(s string) string {
	return strings.Trim(s, " \t*#_")
}

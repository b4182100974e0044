package analysis

// Prompt asks the model for the layout recipe.Parse understands. The
// "No food ingredients detected." sentinel and the section headers must stay
// in sync with the parser.
const Prompt = `Analyze the uploaded image and identify all food ingredients shown.
Based on the detected ingredients, propose 3 authentic Chinese dishes.
Aim for 3 distinct styles: one stir-fry, one braised or stewed, and one soup or steamed dish.

If the image does not contain clear food ingredients, start your response with "No food ingredients detected."

Format your response exactly like this structure:
Detected Ingredients:
- [Ingredient 1]
- [Ingredient 2]

Recipe 1: [Name]
Cooking Style: [Style]
Instructions: [Provide the steps here]

Recipe 2: [Name]
Cooking Style: [Style]
Instructions: [Provide the steps here]

Recipe 3: [Name]
Cooking Style: [Style]
Instructions: [Provide the steps here]

Use your search grounding capability to ensure these are authentic Chinese recipes.`

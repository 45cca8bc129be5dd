// Package nutrition estimates calories eaten and burned from a free-text
// description using the language model.
package nutrition

import "time"

// FoodItem is one food with its estimated calories.
type FoodItem struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Serving  string  `json:"serving"`
}

// Exercise suggests an activity that burns calories.
type Exercise struct {
	Name           string  `json:"name"`
	Duration       string  `json:"duration"`
	CaloriesBurned float64 `json:"caloriesBurned"`
	Intensity      string  `json:"intensity"`
}

// CaloriesAnalysis is the estimate for one food description. Breakdown and
// Exercises keep the order the model returned.
type CaloriesAnalysis struct {
	ID              string     `json:"id"`
	FoodDescription string     `json:"foodDescription"`
	Breakdown       []FoodItem `json:"foodItems"`
	TotalCalories   float64    `json:"totalCalories"`
	Exercises       []Exercise `json:"exercises"`
	CreatedAt       time.Time  `json:"timestamp"`
}

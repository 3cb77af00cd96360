package ledger

import "famtask/internal/model"

// DefaultTasks is the task catalog seeded into an empty store. Point values
// roughly track the time each task takes.
func DefaultTasks() []model.TaskDefinition {
	return []model.TaskDefinition{
		{ID: "kitchen_cleanup", Name: "Clean the kitchen", Points: 10, EstimatedMinutes: 20},
		{ID: "bathroom_cleanup", Name: "Clean the bathroom", Points: 12, EstimatedMinutes: 25},
		{ID: "trash", Name: "Take out the trash", Points: 5, EstimatedMinutes: 5},
		{ID: "laundry", Name: "Do the laundry", Points: 8, EstimatedMinutes: 15},
		{ID: "yard_work", Name: "Tend the yard", Points: 15, EstimatedMinutes: 30},
		{ID: "grocery_run", Name: "Do the grocery run", Points: 7, EstimatedMinutes: 20},
		{ID: "cook_dinner", Name: "Cook dinner", Points: 10, EstimatedMinutes: 25},
		{ID: "tidy_bedroom", Name: "Tidy the bedroom", Points: 6, EstimatedMinutes: 10},
		{ID: "feed_pets", Name: "Feed the pets", Points: 4, EstimatedMinutes: 5},
		{ID: "wash_car", Name: "Wash the car", Points: 13, EstimatedMinutes: 30},
	}
}

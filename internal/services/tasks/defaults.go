package tasks

import "github.com/itsinfi/prompt-with-friends-backend/internal/model"

// DefaultPool returns the built-in task pool used when no task file is configured
func DefaultPool() []model.Task {
	return []model.Task{
		{
			ID:          "haunted-toaster",
			Description: "Describe a haunted toaster's morning routine",
			Tips:        []string{"Give it a personality", "What does it fear?"},
		},
		{
			ID:          "cat-job-interview",
			Description: "Write a job interview between a cat and a goldfish",
			Tips:        []string{"Who is hiring whom?", "Keep it short and punchy"},
		},
		{
			ID:          "alien-review",
			Description: "An alien leaves a restaurant review for Earth",
			Tips:        []string{"Pick a single dish", "Rate it out of five moons"},
		},
		{
			ID:          "villain-apology",
			Description: "A supervillain writes a sincere apology letter",
			Tips:        []string{"Name the crime", "Promise something ridiculous"},
		},
		{
			ID:          "medieval-smartphone",
			Description: "Explain a smartphone to a medieval knight",
			Tips:        []string{"Use only words a knight would know"},
		},
		{
			ID:          "weather-drama",
			Description: "Turn tomorrow's weather forecast into a soap opera",
			Tips:        []string{"The sun and the rain are rivals", "End on a cliffhanger"},
		},
	}
}

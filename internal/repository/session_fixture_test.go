package repository

import (
	"time"

	"quiz-engine/internal/domain"
)

func sampleSession(id string) *domain.QuizSession {
	period := 2
	started := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	return &domain.QuizSession{
		ID:   id,
		Mode: domain.ModeNormal,
		Criteria: domain.SelectionCriteria{
			Mode:           domain.ModeNormal,
			Period:         &period,
			Discipline:     "Operating Systems",
			RequestedCount: 2,
		},
		Questions: []domain.Question{
			{
				ID: "q-1", Text: "What does a scheduler do?",
				Options:       []string{"Allocates CPU", "Formats disks", "Routes packets", "Compiles code"},
				CorrectOption: "Allocates CPU", CorrectIndex: 0,
				Discipline: "Operating Systems", Period: &period,
				Difficulty: domain.DifficultyMedium, Source: domain.SourceInstructor,
			},
			{
				ID: "q-2", Text: "Which is not a process state?",
				Options:       []string{"Ready", "Blocked", "Compiled", "Running"},
				CorrectOption: "Compiled", CorrectIndex: 2,
				Discipline: "Operating Systems", Period: &period,
				Difficulty: domain.DifficultyEasy, Explanation: "Compilation is not a runtime state.",
			},
		},
		CurrentIndex: 1,
		Answers: []domain.AnswerRecord{
			{
				QuestionID: "q-1", QuestionText: "What does a scheduler do?",
				SubmittedOption: "Allocates CPU", CorrectOption: "Allocates CPU",
				IsCorrect: true, Points: 14, ResponseTimeSeconds: 12.5,
				Difficulty: domain.DifficultyMedium,
			},
		},
		StartedAt:   started,
		Preferences: domain.Preferences{"read_aloud": true, "theme": "dark"},
	}
}

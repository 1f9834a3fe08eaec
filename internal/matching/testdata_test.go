package matching

import "candidate-matching-workers/internal/models"

// ==========================
// Test Fixtures
// ==========================

func sampleResume() models.ParsedResume {
	return models.ParsedResume{
		CandidateName:  "John Doe",
		CandidateEmail: "john.doe@email.com",
		Phone:          "+1234567890",
		Skills: []string{
			"JavaScript", "TypeScript", "React", "Node.js", "Python",
			"SQL", "AWS", "Docker", "Git", "Agile",
		},
		Experience: []models.ExperienceEntry{
			{
				Title:        "Senior Software Engineer",
				Company:      "Tech Corp",
				Duration:     "2021-2023",
				Description:  "Led development of web applications using React and Node.js",
				Technologies: []string{"React", "Node.js", "TypeScript"},
			},
			{
				Title:        "Software Engineer",
				Company:      "StartupXYZ",
				Duration:     "2019-2021",
				Description:  "Developed REST APIs and managed cloud infrastructure",
				Technologies: []string{"Python", "AWS", "Docker"},
			},
		},
		Education: []models.EducationEntry{
			{Degree: "Bachelor of Computer Science", University: "State University", Year: "2019", GPA: "3.8"},
		},
		Summary:        "Experienced software engineer with strong background in full-stack development",
		Certifications: []string{"AWS Certified Developer"},
		Languages:      []string{"English", "Spanish"},
		Location:       "San Francisco, CA",
	}
}

func sampleJob() models.JobRequirements {
	return models.JobRequirements{
		ID:           "job1",
		Title:        "Full Stack Developer",
		Description:  "We are looking for a Full Stack Developer with experience in React, Node.js, and cloud technologies.",
		Requirements: "Required: JavaScript, React, Node.js, 3+ years experience. Preferred: TypeScript, AWS, Docker",
		Department:   "Engineering",
		Location:     "San Francisco, CA",
		SalaryRange:  "$100k-150k",
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

package models

// ParsedResume is the structured form of a candidate resume. It is produced by
// the resume extraction pipeline and persisted as JSON in resumes.parsed_data.
type ParsedResume struct {
	CandidateName  string            `json:"candidateName"`
	CandidateEmail string            `json:"candidateEmail"`
	Phone          string            `json:"phone,omitempty"`
	Location       string            `json:"location,omitempty"`
	Summary        string            `json:"summary,omitempty"`
	Skills         []string          `json:"skills"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Certifications []string          `json:"certifications,omitempty"`
	Languages      []string          `json:"languages,omitempty"`
}

type ExperienceEntry struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Duration     string   `json:"duration"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

type EducationEntry struct {
	Degree     string `json:"degree"`
	University string `json:"university"`
	Year       string `json:"year"`
	GPA        string `json:"gpa,omitempty"`
}

// Resume statuses as stored in resumes.status.
const (
	ResumeStatusUploaded = "UPLOADED"
	ResumeStatusParsed   = "PARSED"
	ResumeStatusFailed   = "FAILED"
)

// Resume is a stored resume row with its raw parsed-data blob.
type Resume struct {
	ID             string `json:"id"`
	CandidateName  string `json:"candidateName"`
	CandidateEmail string `json:"candidateEmail"`
	Phone          string `json:"phone,omitempty"`
	ParsedData     string `json:"-"`
	Status         string `json:"status"`
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"candidate-matching-workers/internal/common/logger"
	"candidate-matching-workers/internal/models"
)

const uniqueViolation = "23505"

const selectEvaluations = `
	SELECT e.id, e.job_id, e.resume_id,
	       e.overall_score, e.skills_score, e.experience_score, e.education_score, e.cultural_fit_score,
	       e.explanation, e.recommendation, e.status, e.created_at, e.updated_at,
	       j.id, j.title, COALESCE(j.department, ''), COALESCE(j.location, ''),
	       r.id, r.candidate_name, r.candidate_email, COALESCE(r.phone, ''), r.parsed_data, r.status,
	       u.id, u.name, u.email
	FROM evaluations e
	JOIN jobs j ON j.id = e.job_id
	JOIN resumes r ON r.id = e.resume_id
	LEFT JOIN users u ON u.id = e.evaluated_by_id`

const countEvaluations = `
	SELECT COUNT(*)
	FROM evaluations e
	JOIN jobs j ON j.id = e.job_id
	JOIN resumes r ON r.id = e.resume_id`

const selectResumeTags = `
	SELECT rt.resume_id, t.id, t.name, t.category, COALESCE(t.color, '')
	FROM resume_tags rt
	JOIN tags t ON t.id = rt.tag_id
	WHERE rt.resume_id = ANY($1)
	ORDER BY t.name`

var sortColumns = map[SortField]string{
	SortOverallScore:    "e.overall_score",
	SortSkillsScore:     "e.skills_score",
	SortExperienceScore: "e.experience_score",
	SortEducationScore:  "e.education_score",
	SortCreatedAt:       "e.created_at",
	SortCandidateName:   "r.candidate_name",
}

type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
	newID  func() string
}

type PostgresOption func(*PostgresStore)

// WithClock fixes the timestamps written by SaveEvaluation.
func WithClock(now func() time.Time) PostgresOption {
	return func(s *PostgresStore) { s.now = now }
}

func WithIDGenerator(newID func() string) PostgresOption {
	return func(s *PostgresStore) { s.newID = newID }
}

func NewPostgresStore(db *sql.DB, log logger.Logger, opts ...PostgresOption) *PostgresStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "postgres"}),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ==========================
// Read model
// ==========================

func (s *PostgresStore) FindMany(ctx context.Context, q Query) ([]models.EvaluationRecord, error) {
	var w whereBuilder
	w.apply(q.Predicate)

	var sb strings.Builder
	sb.WriteString(selectEvaluations)
	sb.WriteString(w.sql())
	sb.WriteString(orderBy(q.OrderBy))
	if q.Take > 0 {
		fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", w.arg(q.Take), w.arg(q.Skip))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	records := []models.EvaluationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}

	if err := s.attachTags(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *PostgresStore) Count(ctx context.Context, p Predicate) (int, error) {
	var w whereBuilder
	w.apply(p)

	var total int
	if err := s.db.QueryRowContext(ctx, countEvaluations+w.sql(), w.args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	return total, nil
}

// attachTags loads the tags of every resume on the page in one query.
func (s *PostgresStore) attachTags(ctx context.Context, records []models.EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(records))
	resumeIDs := make([]string, 0, len(records))
	for _, rec := range records {
		if !seen[rec.ResumeID] {
			seen[rec.ResumeID] = true
			resumeIDs = append(resumeIDs, rec.ResumeID)
		}
	}

	byResume, err := loadResumeTags(ctx, s.db, resumeIDs)
	if err != nil {
		return err
	}

	for i := range records {
		records[i].Resume.Tags = byResume[records[i].ResumeID]
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// loadResumeTags returns the tags of each resume keyed by resume id. Every
// requested id is present in the result, with an empty slice when untagged.
func loadResumeTags(ctx context.Context, q queryer, resumeIDs []string) (map[string][]models.Tag, error) {
	rows, err := q.QueryContext(ctx, selectResumeTags, pq.Array(resumeIDs))
	if err != nil {
		return nil, fmt.Errorf("query resume tags: %w", err)
	}
	defer rows.Close()

	byResume := make(map[string][]models.Tag, len(resumeIDs))
	for _, id := range resumeIDs {
		byResume[id] = []models.Tag{}
	}
	for rows.Next() {
		var resumeID string
		var tag models.Tag
		if err := rows.Scan(&resumeID, &tag.ID, &tag.Name, &tag.Category, &tag.Color); err != nil {
			return nil, fmt.Errorf("scan resume tag: %w", err)
		}
		byResume[resumeID] = append(byResume[resumeID], tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resume tags: %w", err)
	}
	return byResume, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.EvaluationRecord, error) {
	var (
		rec                    models.EvaluationRecord
		culturalFit            sql.NullFloat64
		userID, userName, mail sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.JobID, &rec.ResumeID,
		&rec.OverallScore, &rec.SkillsScore, &rec.ExperienceScore, &rec.EducationScore, &culturalFit,
		&rec.Explanation, &rec.Recommendation, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.Job.ID, &rec.Job.Title, &rec.Job.Department, &rec.Job.Location,
		&rec.Resume.ID, &rec.Resume.CandidateName, &rec.Resume.CandidateEmail, &rec.Resume.Phone,
		&rec.Resume.ParsedData, &rec.Resume.Status,
		&userID, &userName, &mail,
	)
	if err != nil {
		return rec, err
	}
	if culturalFit.Valid {
		v := culturalFit.Float64
		rec.CulturalFitScore = &v
	}
	if userID.Valid {
		rec.EvaluatedBy = &models.Evaluator{ID: userID.String, Name: userName.String, Email: mail.String}
	}
	rec.Resume.Tags = []models.Tag{}
	return rec, nil
}

type whereBuilder struct {
	clauses []string
	args    []interface{}
}

func (w *whereBuilder) arg(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) apply(p Predicate) {
	if p.JobID != "" {
		w.add("e.job_id = " + w.arg(p.JobID))
	}
	if p.MinScore != nil {
		w.add("e.overall_score >= " + w.arg(*p.MinScore))
	}
	if p.MaxScore != nil {
		w.add("e.overall_score <= " + w.arg(*p.MaxScore))
	}
	if len(p.Statuses) > 0 {
		w.add("e.status = ANY(" + w.arg(pq.Array(p.Statuses)) + ")")
	}
	if p.DateFrom != nil {
		w.add("e.created_at >= " + w.arg(*p.DateFrom))
	}
	if p.DateTo != nil {
		w.add("e.created_at <= " + w.arg(*p.DateTo))
	}
	if p.Department != "" {
		w.add("j.department = " + w.arg(p.Department))
	}
	if p.Location != "" {
		w.add("j.location ILIKE " + w.arg("%"+escapeLike(p.Location)+"%"))
	}
	if p.SkillContains != "" {
		w.add("r.parsed_data LIKE " + w.arg("%"+escapeLike(p.SkillContains)+"%"))
	}
	if len(p.TagsAny) > 0 {
		w.add(`EXISTS (SELECT 1 FROM resume_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.resume_id = r.id AND t.name = ANY(` + w.arg(pq.Array(p.TagsAny)) + `))`)
	}
	if len(p.TagsNone) > 0 {
		w.add(`NOT EXISTS (SELECT 1 FROM resume_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.resume_id = r.id AND t.name = ANY(` + w.arg(pq.Array(p.TagsNone)) + `))`)
	}
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "\n\tWHERE " + strings.Join(w.clauses, "\n\t  AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// orderBy always appends e.id so that pages are stable across equal keys.
func orderBy(o Order) string {
	column, ok := sortColumns[o.Field]
	if !ok {
		column = sortColumns[SortOverallScore]
	}
	direction := "ASC"
	if o.Descending {
		direction = "DESC"
	}
	return fmt.Sprintf("\n\tORDER BY %s %s, e.id ASC", column, direction)
}

// ==========================
// Write model
// ==========================

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*models.JobRequirements, error) {
	var job models.JobRequirements
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, requirements,
		       COALESCE(department, ''), COALESCE(location, ''), COALESCE(salary_range, '')
		FROM jobs
		WHERE id = $1`, id).Scan(
		&job.ID, &job.Title, &job.Description, &job.Requirements,
		&job.Department, &job.Location, &job.SalaryRange,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	return &job, nil
}

func (s *PostgresStore) GetResume(ctx context.Context, id string) (*models.Resume, error) {
	var r models.Resume
	err := s.db.QueryRowContext(ctx, `
		SELECT id, candidate_name, candidate_email, COALESCE(phone, ''), parsed_data, status
		FROM resumes
		WHERE id = $1`, id).Scan(
		&r.ID, &r.CandidateName, &r.CandidateEmail, &r.Phone, &r.ParsedData, &r.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResumeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load resume %s: %w", id, err)
	}
	return &r, nil
}

// ListParsedResumes returns the PARSED resumes among ids, in the order the
// ids were given. Unknown or unparsed ids are skipped.
func (s *PostgresStore) ListParsedResumes(ctx context.Context, ids []string) ([]models.Resume, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_name, candidate_email, COALESCE(phone, ''), parsed_data, status
		FROM resumes
		WHERE id = ANY($1) AND status = $2
		ORDER BY array_position($1, id)`, pq.Array(ids), models.ResumeStatusParsed)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []models.Resume{}
	for rows.Next() {
		var r models.Resume
		if err := rows.Scan(&r.ID, &r.CandidateName, &r.CandidateEmail, &r.Phone, &r.ParsedData, &r.Status); err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resumes: %w", err)
	}
	return resumes, nil
}

func (s *PostgresStore) EvaluationExists(ctx context.Context, jobID, resumeID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM evaluations WHERE job_id = $1 AND resume_id = $2)`,
		jobID, resumeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check evaluation: %w", err)
	}
	return exists, nil
}

// SaveEvaluation stores a COMPLETED evaluation and links every result tag to
// the resume, creating CUSTOM tags that do not exist yet. It runs in one
// transaction. The returned record carries the resume's complete tag set,
// including tags attached by evaluations for other jobs. A concurrent insert of the same pair yields
// ErrDuplicateEvaluation.
func (s *PostgresStore) SaveEvaluation(ctx context.Context, in models.NewEvaluation) (*models.EvaluationRecord, error) {
	now := s.now().UTC()
	scores := in.Result.Scores

	rec := &models.EvaluationRecord{
		ID:               s.newID(),
		JobID:            in.JobID,
		ResumeID:         in.ResumeID,
		OverallScore:     scores.Overall,
		SkillsScore:      scores.Skills,
		ExperienceScore:  scores.Experience,
		EducationScore:   scores.Education,
		CulturalFitScore: scores.CulturalFit,
		Explanation:      in.Result.Explanation,
		Recommendation:   in.Result.Recommendation,
		Status:           models.EvaluationStatusCompleted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var culturalFit sql.NullFloat64
	if scores.CulturalFit != nil {
		culturalFit = sql.NullFloat64{Float64: *scores.CulturalFit, Valid: true}
	}
	evaluatedBy := sql.NullString{String: in.EvaluatedByID, Valid: in.EvaluatedByID != ""}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, job_id, resume_id, evaluated_by_id,
			overall_score, skills_score, experience_score, education_score, cultural_fit_score,
			explanation, recommendation, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.ID, rec.JobID, rec.ResumeID, evaluatedBy,
		rec.OverallScore, rec.SkillsScore, rec.ExperienceScore, rec.EducationScore, culturalFit,
		rec.Explanation, rec.Recommendation, rec.Status, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			err = ErrDuplicateEvaluation
			return nil, err
		}
		err = fmt.Errorf("insert evaluation: %w", err)
		return nil, err
	}

	for _, name := range in.Result.Tags {
		var tagID string
		err = tx.QueryRowContext(ctx, `
			INSERT INTO tags (id, name, category)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, s.newID(), name, models.TagCategoryCustom).Scan(&tagID)
		if err != nil {
			err = fmt.Errorf("upsert tag %q: %w", name, err)
			return nil, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO resume_tags (id, resume_id, tag_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (resume_id, tag_id) DO NOTHING`, s.newID(), in.ResumeID, tagID)
		if err != nil {
			err = fmt.Errorf("link tag %q: %w", name, err)
			return nil, err
		}
	}

	var byResume map[string][]models.Tag
	byResume, err = loadResumeTags(ctx, tx, []string{in.ResumeID})
	if err != nil {
		return nil, err
	}
	rec.Resume.ID = in.ResumeID
	rec.Resume.Tags = byResume[in.ResumeID]

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit evaluation: %w", err)
		return nil, err
	}

	s.logger.Debug("evaluation saved", map[string]interface{}{
		"evaluationId": rec.ID,
		"jobId":        rec.JobID,
		"resumeId":     rec.ResumeID,
		"tags":         len(in.Result.Tags),
	})
	return rec, nil
}

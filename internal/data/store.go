package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/domain"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// Store implements the intake, listing, task, realtor and staff
// repositories over a single sqlite database.
type Store struct {
	db *sql.DB
}

var _ repo.IntakeRepo = (*Store)(nil)
var _ repo.ListingRepo = (*Store)(nil)
var _ repo.TaskRepo = (*Store)(nil)
var _ repo.RealtorRepo = (*Store)(nil)
var _ repo.StaffRepo = (*Store)(nil)

// NewStore opens (creating if needed) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS intake_records (
			id TEXT PRIMARY KEY,
			sender_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			external_id TEXT UNIQUE NOT NULL,
			thread_id TEXT,
			message_text TEXT NOT NULL,
			classification TEXT NOT NULL,
			message_type TEXT NOT NULL,
			task_key TEXT,
			group_key TEXT,
			confidence REAL NOT NULL,
			all_external_ids TEXT,
			batch_size INTEGER NOT NULL,
			status TEXT NOT NULL,
			error_message TEXT,
			listing_id TEXT,
			task_id TEXT,
			entity_type TEXT,
			received_at INTEGER NOT NULL,
			processed_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intake_status ON intake_records(status)`,
		`CREATE INDEX IF NOT EXISTS idx_intake_received ON intake_records(received_at)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			type TEXT,
			group_key TEXT,
			status TEXT NOT NULL,
			assignee_id TEXT,
			due_date TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS listing_activities (
			id TEXT PRIMARY KEY,
			listing_id TEXT NOT NULL,
			name TEXT NOT NULL,
			category TEXT,
			sequence INTEGER NOT NULL,
			status TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_listing ON listing_activities(listing_id)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			realtor_id TEXT,
			task_key TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			status TEXT NOT NULL,
			priority INTEGER NOT NULL,
			due_date TEXT,
			notes TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS realtors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE,
			phone TEXT,
			phone_digits TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS staff (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			role TEXT,
			created_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func storageErr(op string, err error) error {
	code := repo.StorageCodeGeneral
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE") {
		code = repo.StorageCodeDuplicate
	}
	return &repo.StorageError{Op: op, Code: code, Err: err}
}

// ========== Intake Records ==========

// InsertIntakeRecord inserts a pending record. A redelivered external id
// violates the unique constraint and surfaces as a duplicate StorageError.
func (s *Store) InsertIntakeRecord(ctx context.Context, rec *domain.IntakeRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	classJSON, err := json.Marshal(rec.Classification)
	if err != nil {
		return "", fmt.Errorf("failed to encode classification: %w", err)
	}
	idsJSON, err := json.Marshal(rec.AllExternalIDs)
	if err != nil {
		return "", fmt.Errorf("failed to encode external ids: %w", err)
	}

	receivedAt := rec.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intake_records (
			id, sender_id, channel_id, external_id, thread_id, message_text,
			classification, message_type, task_key, group_key, confidence,
			all_external_ids, batch_size, status, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.SenderID, rec.ChannelID, rec.ExternalID, rec.ThreadID, rec.Text,
		string(classJSON), string(rec.MessageType), string(rec.TaskKey), string(rec.GroupKey),
		rec.Confidence, string(idsJSON), rec.BatchSize, string(rec.Status), receivedAt.Unix())
	if err != nil {
		return "", storageErr("insert intake_record", err)
	}
	return rec.ID, nil
}

// UpdateIntakeRecord applies the single post-materialization patch.
func (s *Store) UpdateIntakeRecord(ctx context.Context, id string, patch domain.IntakePatch) error {
	processedAt := patch.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE intake_records
		SET status = ?, listing_id = ?, task_id = ?, entity_type = ?,
		    error_message = ?, processed_at = ?
		WHERE id = ?
	`, string(patch.Status), patch.ListingID, patch.TaskID, string(patch.EntityType),
		patch.ErrorMessage, processedAt.Unix(), id)
	if err != nil {
		return storageErr("update intake_record", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("update intake_record", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

const intakeColumns = `id, sender_id, channel_id, external_id, thread_id, message_text,
	classification, message_type, task_key, group_key, confidence,
	all_external_ids, batch_size, status,
	COALESCE(error_message, ''), COALESCE(listing_id, ''), COALESCE(task_id, ''),
	COALESCE(entity_type, ''), received_at, COALESCE(processed_at, 0)`

// GetIntakeRecord fetches one record by id.
func (s *Store) GetIntakeRecord(ctx context.Context, id string) (*domain.IntakeRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+intakeColumns+` FROM intake_records WHERE id = ?`, id)
	return scanIntakeRecord(row)
}

// ListIntakeRecords returns the most recent records.
func (s *Store) ListIntakeRecords(ctx context.Context, limit int) ([]*domain.IntakeRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+intakeColumns+` FROM intake_records ORDER BY received_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list intake_records", err)
	}
	defer rows.Close()

	var records []*domain.IntakeRecord
	for rows.Next() {
		rec, err := scanIntakeRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntakeRecord(row rowScanner) (*domain.IntakeRecord, error) {
	var rec domain.IntakeRecord
	var classJSON, idsJSON string
	var receivedAt, processedAt int64
	var threadID sql.NullString

	err := row.Scan(&rec.ID, &rec.SenderID, &rec.ChannelID, &rec.ExternalID, &threadID,
		&rec.Text, &classJSON, &rec.MessageType, &rec.TaskKey, &rec.GroupKey,
		&rec.Confidence, &idsJSON, &rec.BatchSize, &rec.Status,
		&rec.ErrorMessage, &rec.ListingID, &rec.TaskID, &rec.EntityType,
		&receivedAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan intake record: %w", err)
	}

	rec.ThreadID = threadID.String
	if err := json.Unmarshal([]byte(classJSON), &rec.Classification); err != nil {
		return nil, fmt.Errorf("failed to decode classification: %w", err)
	}
	if idsJSON != "" {
		if err := json.Unmarshal([]byte(idsJSON), &rec.AllExternalIDs); err != nil {
			return nil, fmt.Errorf("failed to decode external ids: %w", err)
		}
	}
	rec.ReceivedAt = time.Unix(receivedAt, 0).UTC()
	if processedAt > 0 {
		rec.ProcessedAt = time.Unix(processedAt, 0).UTC()
	}
	return &rec, nil
}

// ========== Listings ==========

// InsertListing inserts a listing and returns its id.
func (s *Store) InsertListing(ctx context.Context, l *domain.Listing) (string, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (id, address, type, group_key, status, assignee_id, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.Address, string(l.Type), string(l.GroupKey), string(l.Status),
		l.AssigneeID, l.DueDate, createdAt.Unix())
	if err != nil {
		return "", storageErr("insert listing", err)
	}
	return l.ID, nil
}

// InsertActivity inserts one template activity for a listing.
func (s *Store) InsertActivity(ctx context.Context, a *domain.Activity) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listing_activities (id, listing_id, name, category, sequence, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ListingID, a.Name, a.Category, a.Sequence, a.Status, createdAt.Unix())
	if err != nil {
		return "", storageErr("insert activity", err)
	}
	return a.ID, nil
}

// GetListing fetches one listing by id.
func (s *Store) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, address, type, group_key, status, COALESCE(assignee_id, ''),
		       COALESCE(due_date, ''), created_at
		FROM listings WHERE id = ?
	`, id)

	var l domain.Listing
	var createdAt int64
	err := row.Scan(&l.ID, &l.Address, &l.Type, &l.GroupKey, &l.Status,
		&l.AssigneeID, &l.DueDate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}
	l.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &l, nil
}

// ListListings returns the most recent listings.
func (s *Store) ListListings(ctx context.Context, limit int) ([]*domain.Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, type, group_key, status, COALESCE(assignee_id, ''),
		       COALESCE(due_date, ''), created_at
		FROM listings ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageErr("list listings", err)
	}
	defer rows.Close()

	var listings []*domain.Listing
	for rows.Next() {
		var l domain.Listing
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.Address, &l.Type, &l.GroupKey, &l.Status,
			&l.AssigneeID, &l.DueDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		l.CreatedAt = time.Unix(createdAt, 0).UTC()
		listings = append(listings, &l)
	}
	return listings, rows.Err()
}

// ListActivities returns a listing's activities in template order.
func (s *Store) ListActivities(ctx context.Context, listingID string) ([]*domain.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, listing_id, name, COALESCE(category, ''), sequence, status, created_at
		FROM listing_activities WHERE listing_id = ? ORDER BY sequence ASC
	`, listingID)
	if err != nil {
		return nil, storageErr("list activities", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		var a domain.Activity
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.ListingID, &a.Name, &a.Category,
			&a.Sequence, &a.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// ========== Tasks ==========

// InsertTask inserts a stand-alone task and returns its id.
func (s *Store) InsertTask(ctx context.Context, t *domain.Task) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	notesJSON, err := json.Marshal(t.Notes)
	if err != nil {
		return "", fmt.Errorf("failed to encode notes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, realtor_id, task_key, name, description, status, priority, due_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.RealtorID, string(t.TaskKey), t.Name, t.Description, string(t.Status),
		t.Priority, t.DueDate, string(notesJSON), createdAt.Unix())
	if err != nil {
		return "", storageErr("insert task", err)
	}
	return t.ID, nil
}

const taskColumns = `id, COALESCE(realtor_id, ''), task_key, name, COALESCE(description, ''),
	status, priority, COALESCE(due_date, ''), COALESCE(notes, ''), created_at`

// GetTask fetches one task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks returns the most recent tasks.
func (s *Store) ListTasks(ctx context.Context, limit int) ([]*domain.Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var notesJSON string
	var createdAt int64
	err := row.Scan(&t.ID, &t.RealtorID, &t.TaskKey, &t.Name, &t.Description,
		&t.Status, &t.Priority, &t.DueDate, &notesJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}
	if notesJSON != "" {
		if err := json.Unmarshal([]byte(notesJSON), &t.Notes); err != nil {
			return nil, fmt.Errorf("failed to decode notes: %w", err)
		}
	}
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &t, nil
}

// UpdateTaskStatus updates one task's status.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return storageErr("update task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr("update task", err)
	}
	if affected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ========== Realtors ==========

// InsertRealtor inserts a directory entry and returns its id.
func (s *Store) InsertRealtor(ctx context.Context, r *domain.Realtor) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO realtors (id, name, email, phone, phone_digits, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.Email, r.Phone, phoneDigits(r.Phone), createdAt.Unix())
	if err != nil {
		return "", storageErr("insert realtor", err)
	}
	return r.ID, nil
}

const realtorColumns = `id, name, COALESCE(email, ''), COALESCE(phone, ''), created_at`

// FindByEmail matches a realtor by exact email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Realtor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+realtorColumns+` FROM realtors WHERE email = ?`, email)
	return scanRealtor(row)
}

// FindByPhoneSuffix matches on the trailing digits of stored phone numbers.
func (s *Store) FindByPhoneSuffix(ctx context.Context, digits string) (*domain.Realtor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+realtorColumns+` FROM realtors WHERE phone_digits LIKE '%' || ? LIMIT 1`, digits)
	return scanRealtor(row)
}

// FindByName matches a realtor by exact, case-sensitive name.
func (s *Store) FindByName(ctx context.Context, name string) (*domain.Realtor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+realtorColumns+` FROM realtors WHERE name = ? LIMIT 1`, name)
	return scanRealtor(row)
}

// FindByNameContains matches by case-insensitive substring.
func (s *Store) FindByNameContains(ctx context.Context, fragment string) (*domain.Realtor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+realtorColumns+` FROM realtors
		WHERE name LIKE '%' || ? || '%' COLLATE NOCASE LIMIT 1
	`, fragment)
	return scanRealtor(row)
}

// ListRealtors returns the full directory.
func (s *Store) ListRealtors(ctx context.Context) ([]*domain.Realtor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+realtorColumns+` FROM realtors ORDER BY name ASC`)
	if err != nil {
		return nil, storageErr("list realtors", err)
	}
	defer rows.Close()

	var realtors []*domain.Realtor
	for rows.Next() {
		r, err := scanRealtor(rows)
		if err != nil {
			return nil, err
		}
		realtors = append(realtors, r)
	}
	return realtors, rows.Err()
}

func scanRealtor(row rowScanner) (*domain.Realtor, error) {
	var r domain.Realtor
	var createdAt int64
	err := row.Scan(&r.ID, &r.Name, &r.Email, &r.Phone, &createdAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan realtor: %w", err)
	}
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &r, nil
}

func phoneDigits(phone string) string {
	var sb strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// ========== Staff ==========

// InsertStaff inserts an operations team member.
func (s *Store) InsertStaff(ctx context.Context, m *domain.StaffMember) (string, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff (id, name, email, role, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Email, m.Role, createdAt.Unix())
	if err != nil {
		return "", storageErr("insert staff", err)
	}
	return m.ID, nil
}

// GetStaffByEmail fetches one staff member by email.
func (s *Store) GetStaffByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, COALESCE(role, ''), created_at
		FROM staff WHERE email = ?
	`, email)

	var m domain.StaffMember
	var createdAt int64
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &createdAt)
	if err == sql.ErrNoRows {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan staff member: %w", err)
	}
	m.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &m, nil
}

// ListStaff returns all staff members.
func (s *Store) ListStaff(ctx context.Context) ([]*domain.StaffMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, COALESCE(role, ''), created_at
		FROM staff ORDER BY name ASC
	`)
	if err != nil {
		return nil, storageErr("list staff", err)
	}
	defer rows.Close()

	var members []*domain.StaffMember
	for rows.Next() {
		var m domain.StaffMember
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Role, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		members = append(members, &m)
	}
	return members, rows.Err()
}

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteArchive 基于 SQLite (WAL 模式) 的日志归档
// SQLiteArchive implements Archive using SQLite with WAL mode
type SQLiteArchive struct {
	db   *sql.DB
	path string
	// maxEntries 每个目标保留的最大条目数，<=0 表示不限制
	// maxEntries caps entries kept per target; <=0 keeps everything
	maxEntries int
}

// NewSQLiteArchive 创建并初始化 SQLite 数据库
// NewSQLiteArchive creates and initializes a SQLite database
func NewSQLiteArchive(dbPath string, maxEntries int) (*SQLiteArchive, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// 启用 WAL 模式和优化 PRAGMA / Enable WAL and performance PRAGMAs
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	a := &SQLiteArchive{db: db, path: dbPath, maxEntries: maxEntries}
	if err := a.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return a, nil
}

func (a *SQLiteArchive) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS log_archive (
		id         TEXT PRIMARY KEY,
		project_id INTEGER NOT NULL,
		task_id    INTEGER NOT NULL,
		subtask_id INTEGER NOT NULL DEFAULT 0,
		mode       TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		tokens     INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_log_archive_target ON log_archive(project_id, task_id, subtask_id, created_at);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Close 关闭数据库连接 / Close the database connection
func (a *SQLiteArchive) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Save 写入一条归档并按上限裁剪同一目标的旧条目
// Save inserts an entry and prunes older entries of the same target beyond the cap
func (a *SQLiteArchive) Save(e Entry) (Entry, error) {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = NewEntryID()
	}
	if strings.TrimSpace(e.CreatedAt) == "" {
		e.CreatedAt = nowUTC()
	}
	e.Size = len(e.Content)

	_, err := a.db.Exec(`
		INSERT INTO log_archive (id, project_id, task_id, subtask_id, mode, content, tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.TaskID, e.SubtaskID, e.Mode, e.Content, e.Tokens, e.CreatedAt,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert archive entry: %w", err)
	}
	if a.maxEntries > 0 {
		if _, err := a.Prune(e.ProjectID, e.TaskID, e.SubtaskID, a.maxEntries); err != nil {
			return e, err
		}
	}
	return e, nil
}

// List 按时间倒序列出条目（不含正文）
// List returns entries newest first, without content
func (a *SQLiteArchive) List(f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.ProjectID != 0 {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.TaskID != 0 {
		where = append(where, "task_id = ?")
		args = append(args, f.TaskID)
	}
	if f.SubtaskID != 0 {
		where = append(where, "subtask_id = ?")
		args = append(args, f.SubtaskID)
	}
	query := `SELECT id, project_id, task_id, subtask_id, mode, length(CAST(content AS BLOB)), tokens, created_at FROM log_archive`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.TaskID, &e.SubtaskID, &e.Mode, &e.Size, &e.Tokens, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan archive entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (a *SQLiteArchive) Load(id string) (Entry, error) {
	var e Entry
	err := a.db.QueryRow(`
		SELECT id, project_id, task_id, subtask_id, mode, content, tokens, created_at
		FROM log_archive WHERE id = ?`, id,
	).Scan(&e.ID, &e.ProjectID, &e.TaskID, &e.SubtaskID, &e.Mode, &e.Content, &e.Tokens, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load archive entry: %w", err)
	}
	e.Size = len(e.Content)
	return e, nil
}

// Prune 只保留目标最新的 keep 条，返回删除数量
// Prune keeps the newest keep entries of a target and returns how many were deleted
func (a *SQLiteArchive) Prune(projectID, taskID, subtaskID int64, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := a.db.Exec(`
		DELETE FROM log_archive
		WHERE project_id = ? AND task_id = ? AND subtask_id = ?
		AND id NOT IN (
			SELECT id FROM log_archive
			WHERE project_id = ? AND task_id = ? AND subtask_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)`,
		projectID, taskID, subtaskID, projectID, taskID, subtaskID, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune archive: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune archive: %w", err)
	}
	return int(n), nil
}

// --- Helpers ---

// timeLayout 定长格式，保证按字符串排序即按时间排序
// timeLayout is fixed-width so text order matches time order
const timeLayout = "2006-01-02T15:04:05.000000Z"

func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}
